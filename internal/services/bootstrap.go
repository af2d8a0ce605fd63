package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spta/internal/shared"
)

const (
	// WebOrigin is the public web player. Its bundle carries the bearer token and the API only accepts requests from it.
	WebOrigin = "https://music.apple.com"

	bundlePrefix = "/assets/index-"
	tokenMarker  = "eyJhbGciOiJFUzI1NiIsInR5cCI6IkpXVCIsImtpZCI6IldlYlBsYXlLaWQifQ."
)

// TokenFetcher produces the bearer credential used for every catalog request.
type TokenFetcher interface {
	FetchBearerToken(ctx context.Context) (string, error)
}

// Bootstrapper scrapes the bearer token out of the web player's script bundle.
type Bootstrapper struct {
	origin     string
	httpClient *http.Client
	logger     *log.Logger
}

var _ TokenFetcher = (*Bootstrapper)(nil)

// NewBootstrapper creates a Bootstrapper that reads the landing page at origin.
//
// An empty origin defaults to [WebOrigin] and a nil client to [http.DefaultClient].
func NewBootstrapper(origin string, client *http.Client, logger *log.Logger) *Bootstrapper {
	if origin == "" {
		origin = WebOrigin
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &Bootstrapper{origin: origin, httpClient: client, logger: logger}
}

// FetchBearerToken downloads the landing page, follows the first index bundle script and extracts the embedded token.
func (b *Bootstrapper) FetchBearerToken(ctx context.Context) (string, error) {
	base, err := url.Parse(b.origin)
	if err != nil {
		return "", fmt.Errorf("%w: invalid origin %q: %v", ErrBootstrap, b.origin, err)
	}

	page, err := b.fetch(ctx, base.String())
	if err != nil {
		return "", err
	}

	src, err := findBundle(page)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: invalid bundle path %q: %v", ErrBootstrap, src, err)
	}

	bundleURL := base.ResolveReference(ref).String()
	b.logger.Debug("fetching script bundle", "url", bundleURL)

	js, err := b.fetch(ctx, bundleURL)
	if err != nil {
		return "", err
	}

	return ExtractToken(string(js))
}

func (b *Bootstrapper) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrBootstrap, err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: GET %s: %v", ErrBootstrap, ErrTransport, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: failed to read %s: %v", ErrBootstrap, ErrTransport, target, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrBootstrap, target, resp.StatusCode)
	}

	return body, nil
}

// findBundle returns the src of the first script tag pointing at the index bundle.
func findBundle(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse landing page: %v", ErrBootstrap, err)
	}

	var src string
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("src"); ok && strings.HasPrefix(v, bundlePrefix) {
			src = v
			return false
		}
		return true
	})

	if src == "" {
		return "", ErrAssetNotFound
	}
	return src, nil
}

// ExtractToken returns the token starting at the fixed JWT header marker and ending before the next quote.
func ExtractToken(js string) (string, error) {
	start := strings.Index(js, tokenMarker)
	if start < 0 {
		return "", ErrTokenNotFound
	}

	end := strings.IndexAny(js[start:], `"'`)
	if end < 0 {
		return "", ErrTokenUnterminated
	}

	return js[start : start+end], nil
}
