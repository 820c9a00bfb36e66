package uniprot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yumyai/unirefcmp/internal/util"
	"github.com/yumyai/unirefcmp/logger"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 10
	DefaultBackoffUnit = 5 * time.Second

	// ChunkSize is the write granularity of streamed downloads.
	ChunkSize = 8192

	userAgent = "unirefcmp/0.1 (+https://github.com/yumyai/unirefcmp)"
)

// Request fully describes one call: a form POST when Form is set,
// otherwise a GET of URL.
type Request struct {
	Method string
	URL    string
	Form   url.Values
}

func NewFormRequest(target string, form url.Values) *Request {
	return &Request{Method: http.MethodPost, URL: target, Form: form}
}

func NewGetRequest(target string) *Request {
	return &Request{Method: http.MethodGet, URL: target}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Transport sends requests with bounded retries. After failed attempt i
// (counting from zero) it waits i*BackoffUnit before trying again.
type Transport struct {
	HTTPClient  *http.Client
	MaxAttempts int
	BackoffUnit time.Duration
	Sleep       SleepFunc
}

func NewTransport(client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Transport{
		HTTPClient:  client,
		MaxAttempts: DefaultMaxAttempts,
		BackoffUnit: DefaultBackoffUnit,
		Sleep:       sleepContext,
	}
}

// Send performs req and returns the whole body as text.
func (t *Transport) Send(ctx context.Context, req *Request) (string, error) {
	var body string
	err := t.retry(ctx, req, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

// Download streams the response of req into dest, ChunkSize bytes at a time,
// and returns the number of bytes written. Any file already at dest is
// removed first and missing parent directories are created. On failure no
// file is left at dest.
func (t *Transport) Download(ctx context.Context, req *Request, dest string) (int64, error) {
	if err := util.RemoveIfExists(dest); err != nil {
		return 0, &FilesystemError{Path: dest, Err: err}
	}
	if err := util.EnsureParentDir(dest); err != nil {
		return 0, &FilesystemError{Path: dest, Err: err}
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, &FilesystemError{Path: dest, Err: err}
	}

	written, err := t.download(ctx, req, f, dest)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = &FilesystemError{Path: dest, Err: cerr}
	}
	if err != nil {
		// A failed download leaves nothing at dest.
		if rerr := util.RemoveIfExists(dest); rerr != nil {
			logger.Warn("cannot remove failed download", zap.String("dest", dest), zap.Error(rerr))
		}
		return 0, err
	}
	return written, nil
}

func (t *Transport) download(ctx context.Context, req *Request, f *os.File, dest string) (int64, error) {
	var written int64
	err := t.retry(ctx, req, func(resp *http.Response) error {
		// Drop whatever a previous failed attempt left behind.
		if err := f.Truncate(0); err != nil {
			return &FilesystemError{Path: dest, Err: err}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return &FilesystemError{Path: dest, Err: err}
		}

		n, err := copyChunks(f, resp.Body, dest)
		written = n
		return err
	})
	if err != nil {
		return 0, err
	}

	if err := f.Sync(); err != nil {
		return 0, &FilesystemError{Path: dest, Err: err}
	}
	return written, nil
}

func copyChunks(dst io.Writer, src io.Reader, dest string) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, &FilesystemError{Path: dest, Err: werr}
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("read body: %w", rerr)
		}
	}
}

// retry runs the attempt loop. consume handles a 2xx response; an error it
// returns counts as a failed attempt unless it is a *FilesystemError.
func (t *Transport) retry(ctx context.Context, req *Request, consume func(*http.Response) error) error {
	maxAttempts := t.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := t.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := t.attempt(ctx, req, consume)
		if err == nil {
			if attempt > 0 {
				logger.Info("request succeeded after retry",
					zap.String("url", req.URL), zap.Int("attempt", attempt+1))
			}
			return nil
		}

		var fsErr *FilesystemError
		if errors.As(err, &fsErr) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request %s cancelled: %w", req.URL, ctxErr)
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			logger.Warn("request failed, giving up",
				zap.String("url", req.URL),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err),
			)
			break
		}

		wait := time.Duration(attempt) * t.BackoffUnit
		logger.Warn("request failed, waiting before next attempt",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("request %s cancelled: %w", req.URL, err)
		}
	}

	return fmt.Errorf("%s %s: %w after %d attempts: %w",
		req.Method, req.URL, ErrRetriesExhausted, maxAttempts, lastErr)
}

func (t *Transport) attempt(ctx context.Context, req *Request, consume func(*http.Response) error) error {
	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return err
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	return consume(resp)
}
