package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"
)

// CSVWriter writes structs as CSV rows. Columns follow the struct fields:
// the col tag names the column, type:"date" renders a time as yyyy-mm-dd.
type CSVWriter[T any] struct {
	file       *os.File
	writer     *csv.Writer
	columns    []columnInfo
	header     bool
	headerDone bool
	rows       int
}

type columnInfo struct {
	index  int
	name   string
	isTime bool
	isDate bool
}

type CSVOption func(*csvConfig)

type csvConfig struct {
	header bool
}

// WithHeader toggles the header row. It is written by default.
func WithHeader(on bool) CSVOption {
	return func(c *csvConfig) { c.header = on }
}

// NewCSVWriter creates filename and writes rows into it.
func NewCSVWriter[T any](filename string, opts ...CSVOption) (*CSVWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	cw, err := NewCSVStreamWriter[T](f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.file = f
	return cw, nil
}

// NewCSVStreamWriter writes rows to w. Close flushes but does not close w.
func NewCSVStreamWriter[T any](w io.Writer, opts ...CSVOption) (*CSVWriter[T], error) {
	cfg := &csvConfig{header: true}
	for _, opt := range opts {
		opt(cfg)
	}

	cols, err := csvColumns[T]()
	if err != nil {
		return nil, err
	}
	return &CSVWriter[T]{
		writer:  csv.NewWriter(w),
		columns: cols,
		header:  cfg.header,
	}, nil
}

func csvColumns[T any]() ([]columnInfo, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("generic type T must be a struct")
	}

	timeType := reflect.TypeOf(time.Time{})
	var cols []columnInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("col")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		cols = append(cols, columnInfo{
			index:  i,
			name:   name,
			isTime: field.Type == timeType,
			isDate: field.Tag.Get("type") == "date",
		})
	}
	return cols, nil
}

// Header returns the column names in order.
func (cw *CSVWriter[T]) Header() []string {
	names := make([]string, len(cw.columns))
	for i, col := range cw.columns {
		names[i] = col.name
	}
	return names
}

func (cw *CSVWriter[T]) writeHeader() error {
	if cw.headerDone || !cw.header {
		return nil
	}
	cw.headerDone = true
	if err := cw.writer.Write(cw.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write appends rows. The header goes out with the first call, even an
// empty one.
func (cw *CSVWriter[T]) Write(data []T) error {
	if err := cw.writeHeader(); err != nil {
		return err
	}

	record := make([]string, len(cw.columns))
	for _, item := range data {
		val := reflect.ValueOf(item)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}
		for i, col := range cw.columns {
			record[i] = formatCell(val.Field(col.index), col)
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		cw.rows++
	}
	return nil
}

// Rows is the number of data rows written so far.
func (cw *CSVWriter[T]) Rows() int { return cw.rows }

func formatCell(v reflect.Value, col columnInfo) string {
	if col.isTime {
		t := v.Interface().(time.Time)
		switch {
		case t.IsZero():
			return ""
		case col.isDate:
			return t.Format("2006-01-02")
		default:
			return t.Format(time.RFC3339)
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func (cw *CSVWriter[T]) Close() error {
	if err := cw.writeHeader(); err != nil {
		return err
	}
	cw.writer.Flush()
	err := cw.writer.Error()
	if cw.file != nil {
		if cerr := cw.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}
