package vendors

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"offerapp-backend/internal/apperr"
)

const maxMapPageBytes = 2 << 20

var (
	atPattern          = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	queryPattern       = regexp.MustCompile(`[?&]q=(-?\d+\.\d+),(-?\d+\.\d+)`)
	centerParamPattern = regexp.MustCompile(`center=(-?\d+\.\d+)%2C(-?\d+\.\d+)`)
	centerJSONPattern  = regexp.MustCompile(`"center":\[(-?\d+\.\d+),(-?\d+\.\d+)\]`)
)

// CoordinateResolver extracts latitude and longitude from map links, full or
// shortened.
type CoordinateResolver struct {
	client *http.Client
}

func NewCoordinateResolver(client *http.Client) *CoordinateResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CoordinateResolver{client: client}
}

// Resolve returns nil without an error when the link is well formed but no
// coordinates can be found in it, its redirect target or its page.
func (c *CoordinateResolver) Resolve(ctx context.Context, raw string) (*Coordinates, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Validation("url is required")
	}
	if coords := matchCoordinates(raw, atPattern, queryPattern); coords != nil {
		return coords, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Validation("url must be an absolute http(s) link")
	}

	if final, ok := c.redirectTarget(ctx, u.String()); ok {
		if coords := matchCoordinates(final, atPattern); coords != nil {
			return coords, nil
		}
	}

	page, ok := c.page(ctx, u.String())
	if !ok {
		return nil, nil
	}
	return matchCoordinates(page, centerParamPattern, centerJSONPattern), nil
}

// redirectTarget returns the URL a HEAD request ends up at after redirects.
func (c *CoordinateResolver) redirectTarget(ctx context.Context, target string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return "", false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	return resp.Request.URL.String(), true
}

func (c *CoordinateResolver) page(ctx context.Context, target string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMapPageBytes))
	if err != nil {
		return "", false
	}
	return string(body), true
}

func matchCoordinates(s string, patterns ...*regexp.Regexp) *Coordinates {
	for _, p := range patterns {
		m := p.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		lat, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		return &Coordinates{Latitude: lat, Longitude: lng}
	}
	return nil
}
