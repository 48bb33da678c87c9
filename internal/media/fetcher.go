package media

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher downloads remote media into the job working directory.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a download client for remote media URLs.
func NewFetcher() *Fetcher {
	client := resty.New()
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)
	return &Fetcher{client: client}
}

// Fetch downloads url to dest and returns the response content type.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		// resty writes the error body to dest as well; drop it.
		os.Remove(dest)
		return "", fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode())
	}
	return resp.Header().Get("Content-Type"), nil
}
