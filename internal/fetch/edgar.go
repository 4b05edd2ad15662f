package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/filingchat/internal/model"
	appErr "github.com/xxxsen/filingchat/internal/pkg/errors"
)

var allowedDomains = map[string]struct{}{
	"sec.gov":     {},
	"www.sec.gov": {},
}

type EDGARFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewEDGARFetcher(userAgent string, timeout time.Duration, requestsPerSec float64) *EDGARFetcher {
	return &EDGARFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

// ValidateURL rejects anything outside sec.gov before a byte is fetched.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing domain", appErr.ErrInvalid)
	}
	if _, ok := allowedDomains[parsed.Host]; !ok {
		return fmt.Errorf("%w: only sec.gov urls are allowed, got %s", appErr.ErrInvalid, parsed.Host)
	}
	return nil
}

func (f *EDGARFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d url=%s", appErr.ErrFetchFailed, resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrFetchFailed, err)
	}
	return body, nil
}

func (f *EDGARFetcher) FetchDocument(ctx context.Context, rawURL string) (*model.Document, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("url", rawURL))
	body, err := f.get(ctx, rawURL)
	if err != nil {
		logger.Error("fetch document failed", zap.Error(err))
		return nil, err
	}
	doc, err := ParseDocument(string(body), rawURL)
	if err != nil {
		logger.Error("parse document failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrFetchFailed, err)
	}
	logger.Info("document fetched", zap.Int("elements", len(doc.Elements)), zap.Int("bytes", len(body)))
	return doc, nil
}
