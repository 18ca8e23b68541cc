package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
)

const (
	downloadSections  = 5
	minSectionedBytes = 4 << 20
)

type Download struct {
	Client        *http.Client
	URL           string
	Target        string
	TotalSections int
}

// DownloadFile fetches url into targetPath. Large files from servers that
// accept byte ranges are fetched in concurrent sections.
func DownloadFile(ctx context.Context, url, targetPath string) error {
	d := &Download{
		Client:        http.DefaultClient,
		URL:           url,
		Target:        targetPath,
		TotalSections: downloadSections,
	}
	return d.Run(ctx)
}

func (d *Download) Run(ctx context.Context) error {
	size, ranged, err := d.probe(ctx)
	if err != nil {
		return err
	}

	if !ranged || size < minSectionedBytes || d.TotalSections < 2 {
		return d.fetchWhole(ctx)
	}
	return d.fetchSections(ctx, size)
}

func (d *Download) probe(ctx context.Context) (int64, bool, error) {
	r, err := d.newRequest(ctx, http.MethodHead)
	if err != nil {
		return 0, false, err
	}
	res, err := d.Client.Do(r)
	if err != nil {
		return 0, false, fmt.Errorf("failed to execute HEAD request: %w", err)
	}
	res.Body.Close()

	if res.StatusCode > 299 {
		return 0, false, fmt.Errorf("server returned error status code: %d", res.StatusCode)
	}
	size, err := strconv.ParseInt(res.Header.Get("Content-Length"), 10, 64)
	if err != nil || size <= 0 {
		return 0, false, nil
	}
	return size, res.Header.Get("Accept-Ranges") == "bytes", nil
}

func (d *Download) newRequest(ctx context.Context, method string) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	r.Header.Set("User-Agent", "b3hist")
	return r, nil
}

func (d *Download) fetchWhole(ctx context.Context) error {
	r, err := d.newRequest(ctx, http.MethodGet)
	if err != nil {
		return err
	}
	res, err := d.Client.Do(r)
	if err != nil {
		return fmt.Errorf("failed to execute GET request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned error status code: %d", res.StatusCode)
	}

	part := d.Target + ".part"
	if err := writeFrom(part, res.Body); err != nil {
		return err
	}
	return os.Rename(part, d.Target)
}

func (d *Download) fetchSections(ctx context.Context, size int64) error {
	each := size / int64(d.TotalSections)
	sections := make([][2]int64, d.TotalSections)
	for i := range sections {
		sections[i][0] = int64(i) * each
		sections[i][1] = sections[i][0] + each - 1
	}
	sections[len(sections)-1][1] = size - 1

	var wg sync.WaitGroup
	errs := make([]error, len(sections))
	for i, section := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.fetchSection(ctx, i, section)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		d.removeParts(len(sections))
		return err
	}
	if err := d.mergeSections(len(sections)); err != nil {
		d.removeParts(len(sections))
		os.Remove(d.Target)
		return fmt.Errorf("failed to merge sections: %w", err)
	}
	return nil
}

func (d *Download) partName(i int) string {
	return fmt.Sprintf("%s.part%d", d.Target, i)
}

func (d *Download) fetchSection(ctx context.Context, i int, section [2]int64) error {
	r, err := d.newRequest(ctx, http.MethodGet)
	if err != nil {
		return err
	}
	r.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", section[0], section[1]))
	res, err := d.Client.Do(r)
	if err != nil {
		return fmt.Errorf("failed to execute GET request for section %d: %w", i, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("server does not support partial content for section %d: status code %d", i, res.StatusCode)
	}
	if err := writeFrom(d.partName(i), res.Body); err != nil {
		return fmt.Errorf("section %d: %w", i, err)
	}
	return nil
}

func (d *Download) mergeSections(n int) error {
	f, err := os.Create(d.Target)
	if err != nil {
		return fmt.Errorf("failed to create target file %s: %w", d.Target, err)
	}
	defer f.Close()

	for i := 0; i < n; i++ {
		part, err := os.Open(d.partName(i))
		if err != nil {
			return fmt.Errorf("failed to read part file: %w", err)
		}
		_, err = io.Copy(f, part)
		part.Close()
		if err != nil {
			return fmt.Errorf("failed to write part %d to target file: %w", i, err)
		}
		os.Remove(d.partName(i))
	}
	return nil
}

func (d *Download) removeParts(n int) {
	for i := 0; i < n; i++ {
		os.Remove(d.partName(i))
	}
}

func writeFrom(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
