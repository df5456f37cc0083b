package geo

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/fsutil"
)

// Fetcher downloads the container archive of the dataset.
type Fetcher struct {
	layout Layout
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates the download stage. The URL is built from template by replacing {host} and
// {dataset}.
func NewFetcher(layout Layout, template, host string, client *http.Client, logger *slog.Logger) *Fetcher {
	url := strings.NewReplacer("{host}", host, "{dataset}", layout.Dataset).Replace(template)

	return &Fetcher{
		layout: layout,
		url:    url,
		client: client,
		logger: logger.With("task", TaskDownload),
	}
}

func (f *Fetcher) Name() string { return TaskDownload }

func (f *Fetcher) Requires() []string { return nil }

func (f *Fetcher) Outputs() ([]string, error) {
	return []string{f.layout.Archive()}, nil
}

// URL returns the address the archive is downloaded from.
func (f *Fetcher) URL() string { return f.url }

// Run downloads the whole archive in memory then writes it in one go.
func (f *Fetcher) Run(ctx context.Context) error {
	f.logger.Info("downloading archive", "url", f.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return errors.Wrapf(err, "unable to create request for %s", f.url)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "unable to download %s", f.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransferError{URL: f.url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "unable to read response from %s", f.url)
	}

	f.logger.Info("archive downloaded", "url", f.url, "bytes", len(body))

	path := f.layout.Archive()
	err = fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(body))

		return err
	})
	if err != nil {
		return &FilesystemError{Op: "write", Path: path, Err: err}
	}

	f.logger.Info("archive saved", "path", path)

	return nil
}
