package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartsheet/internal/shared/logging"
)

// DefaultImageLimit caps downloaded rota images.
const DefaultImageLimit int64 = 16 << 20

// New builds an HTTP client with a whole-request timeout.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger = logging.OrNop(logger)
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			logger.Debug("Following redirect to %s", req.URL.Redacted())
			return nil
		},
	}
}

// Fetcher downloads binary payloads such as pre-rendered rota images.
type Fetcher struct {
	client *http.Client
	limit  int64
	logger logging.Logger
}

// NewFetcher returns a Fetcher that refuses bodies larger than limit.
func NewFetcher(client *http.Client, limit int64, logger logging.Logger) *Fetcher {
	if client == nil {
		client = New(0, logger)
	}
	if limit <= 0 {
		limit = DefaultImageLimit
	}
	return &Fetcher{client: client, limit: limit, logger: logging.OrNop(logger)}
}

// Fetch GETs url and returns the body. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported image url %q", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	data, err := ReadAllWithLimit(resp.Body, f.limit)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	f.logger.Debug("Fetched %d bytes from %s", len(data), req.URL.Redacted())
	return data, nil
}

// BodyTooLargeError reports a response body over the configured cap.
type BodyTooLargeError struct {
	Limit int64
}

func (e BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether err is a BodyTooLargeError.
func IsResponseTooLarge(err error) bool {
	var limitErr BodyTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit reads r up to limit bytes. limit <= 0 reads everything.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, BodyTooLargeError{Limit: limit}
	}
	return data, nil
}
