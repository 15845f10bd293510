package main

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	// TODO: mimic the rest of a browser's request headers if plain User-Agent stops being enough
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"
	defaultTimeout   = 30 * time.Second
	maxRedirects     = 5
)

// Fetcher downloads manifests and page images.
type Fetcher struct {
	client    *fasthttp.Client
	userAgent string
	timeout   time.Duration
}

// NewFetcher creates a Fetcher. A nil client, empty user agent or zero
// timeout fall back to defaults.
func NewFetcher(client *fasthttp.Client, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent, timeout: timeout}
}

// Fetch returns the body of a GET request to url. Anything but 200 after
// redirects is a *TransferError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(f.userAgent)
	req.SetTimeout(timeout)

	if err := f.client.DoRedirects(req, resp, maxRedirects); err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}

	if statusCode := resp.StatusCode(); statusCode != fasthttp.StatusOK {
		return nil, &TransferError{URL: url, StatusCode: statusCode}
	}

	// Copy body since response will be released
	body := resp.Body()
	result := make([]byte, len(body))
	copy(result, body)

	return result, nil
}

// Manifest fetches and parses an episode manifest.
func (f *Fetcher) Manifest(ctx context.Context, url string) (*Manifest, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}
	return m, nil
}
