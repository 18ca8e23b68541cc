package utils

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type csvRow struct {
	Date   time.Time `col:"date" type:"date"`
	Stamp  time.Time `col:"stamp"`
	Name   string    `col:"name"`
	Count  uint32    `col:"count"`
	Delta  int64     `col:"delta"`
	Hidden string    `col:"-"`
	NoTag  float64
}

func TestCSVStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	cw, err := NewCSVStreamWriter[csvRow](&buf)
	require.NoError(t, err)

	day := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cw.Write([]csvRow{
		{Date: day, Stamp: day, Name: "ON, NM", Count: 7, Delta: -3, Hidden: "x", NoTag: 1.5},
		{Name: "PN"},
	}))
	require.NoError(t, cw.Close())

	assert.Equal(t, 2, cw.Rows())
	assert.Equal(t,
		"date,stamp,name,count,delta,NoTag\n"+
			"2024-01-02,2024-01-02T12:00:00Z,\"ON, NM\",7,-3,1.5\n"+
			",,PN,0,0,0\n",
		buf.String())
}

func TestCSVWriterHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cw, err := NewCSVWriter[csvRow](path)
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,stamp,name,count,delta,NoTag\n", string(data))
}

func TestCSVWriterWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	cw, err := NewCSVStreamWriter[csvRow](&buf, WithHeader(false))
	require.NoError(t, err)
	require.NoError(t, cw.Write([]csvRow{{Name: "A"}}))
	require.NoError(t, cw.Close())
	assert.Equal(t, ",,A,0,0,0\n", buf.String())
}

func TestCSVWriterRejectsNonStruct(t *testing.T) {
	_, err := NewCSVStreamWriter[int](&bytes.Buffer{})
	assert.Error(t, err)
}

func TestOpenInputPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "COTAHIST_D02012024.TXT")
	require.NoError(t, os.WriteFile(path, []byte("00COTAHIST\n"), 0644))

	in, err := OpenInput(path)
	require.NoError(t, err)
	defer in.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(in)
	require.NoError(t, err)
	assert.Equal(t, "00COTAHIST\n", buf.String())
	assert.Equal(t, "COTAHIST_D02012024.TXT", in.Name)
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestOpenInputZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "COTAHIST_A2024.ZIP")
	writeZip(t, path, map[string]string{"COTAHIST_A2024.TXT": "00COTAHIST.2024\n"})

	in, err := OpenInput(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(in)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	assert.Equal(t, "00COTAHIST.2024\n", buf.String())
	assert.Equal(t, "COTAHIST_A2024.ZIP:COTAHIST_A2024.TXT", in.Name)

	multi := filepath.Join(dir, "multi.zip")
	writeZip(t, multi, map[string]string{"a.txt": "a", "b.txt": "b"})
	_, err = OpenInput(multi)
	assert.ErrorContains(t, err, "more than one file")

	empty := filepath.Join(dir, "empty.zip")
	writeZip(t, empty, nil)
	_, err = OpenInput(empty)
	assert.ErrorContains(t, err, "holds no file")
}

func TestOpenInputMissing(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = OpenInput(t.TempDir())
	assert.ErrorContains(t, err, "is not a file")
}

func TestCheckOutputFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckOutputFile(filepath.Join(dir, "nested", "out.csv")))
	assert.DirExists(t, filepath.Join(dir, "nested"))
	assert.Error(t, CheckOutputFile(dir))
}

func TestPipeline(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var got []int

	p := NewPipeline[int, int](WithConcurrency(3))
	res, err := p.Run(context.Background(), inputs,
		func(_ context.Context, n int) ([]int, error) {
			if n%4 == 0 {
				return nil, errors.New("multiple of four")
			}
			return []int{n, n * 10}, nil
		},
		func(rows []int) error {
			got = append(got, rows...)
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, 8, res.TotalItems)
	assert.Equal(t, 6, res.ProcessedItems)
	assert.Equal(t, 12, res.OutputRows)
	assert.Len(t, res.Errors, 2)
	assert.Len(t, got, 12)
	assert.ErrorContains(t, res.Err(), "multiple of four")
}

func TestPipelineRecoversPanic(t *testing.T) {
	p := NewPipeline[int, int](WithConcurrency(2), WithFailFast())
	res, err := p.Run(context.Background(), []int{1},
		func(context.Context, int) ([]int, error) { panic("boom") },
		func([]int) error { return nil })
	require.NoError(t, err)
	assert.ErrorContains(t, res.FirstError(), "boom")
}

func TestDownloadFile(t *testing.T) {
	small := []byte(strings.Repeat("0123456789", 100))
	large := bytes.Repeat([]byte("abcdefgh"), minSectionedBytes/8+123)
	var rangedGets atomic.Int32

	mux := http.NewServeMux()
	serve := func(name string, content []byte) {
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.Header.Get("Range") != "" {
				rangedGets.Add(1)
			}
			http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(content))
		})
	}
	serve("small.zip", small)
	serve("large.zip", large)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	ctx := context.Background()

	target := filepath.Join(dir, "small.zip")
	require.NoError(t, DownloadFile(ctx, srv.URL+"/small.zip", target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, small, data)
	assert.Zero(t, rangedGets.Load())

	target = filepath.Join(dir, "large.zip")
	require.NoError(t, DownloadFile(ctx, srv.URL+"/large.zip", target))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, large, data)
	assert.Equal(t, int32(downloadSections), rangedGets.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no part files left")

	err = DownloadFile(ctx, srv.URL+"/missing.zip", filepath.Join(dir, "missing.zip"))
	assert.ErrorContains(t, err, "404")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("DEBUG").String())
	assert.Equal(t, "warn", ParseLevel("warning").String())
	assert.Equal(t, "info", ParseLevel("chatty").String())
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown")
}
