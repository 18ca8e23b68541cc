package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

type ParquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
	rows   int
}

// NewParquetWriter creates filename and writes Snappy-compressed row groups
// into it. Extra options override the defaults.
func NewParquetWriter[T any](filename string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	pw := NewParquetStreamWriter[T](f, options...)
	pw.file = f
	return pw, nil
}

// NewParquetStreamWriter writes to w; Close writes the footer but leaves w open.
func NewParquetStreamWriter[T any](w io.Writer, options ...parquet.WriterOption) *ParquetWriter[T] {
	opts := append([]parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.PageBufferSize(64 * 1024),
	}, options...)
	return &ParquetWriter[T]{writer: parquet.NewGenericWriter[T](w, opts...)}
}

func (p *ParquetWriter[T]) Write(data []T) error {
	n, err := p.writer.Write(data)
	p.rows += n
	return err
}

func (p *ParquetWriter[T]) Rows() int { return p.rows }

func (p *ParquetWriter[T]) Close() error {
	if err := p.writer.Close(); err != nil {
		if p.file != nil {
			p.file.Close()
		}
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if p.file == nil {
		return nil
	}
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
