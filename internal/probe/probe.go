// Package probe checks that the site under test is reachable before any browser is launched.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/httpclient"
)

// Result describes one preflight request
type Result struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url"`
	StatusCode int           `json:"status_code"`
	Title      string        `json:"title"`
	Latency    time.Duration `json:"latency"`
}

// Prober performs preflight requests
type Prober struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger
}

// NewProber creates a prober. A nil client gets a cookie-aware client with a 15s timeout.
func NewProber(client *http.Client, userAgent string, logger arbor.ILogger) (*Prober, error) {
	if client == nil {
		var err error
		client, err = httpclient.NewHTTPClientWithCookies(15 * time.Second)
		if err != nil {
			return nil, err
		}
	}
	if userAgent == "" {
		userAgent = httpclient.DefaultUserAgent
	}
	return &Prober{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// Check fetches url and reads its <title>. Any non-2xx response is an error.
func (p *Prober) Check(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build preflight request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("preflight request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	result := &Result{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("preflight request to %s returned status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return result, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	result.Title = strings.TrimSpace(doc.Find("title").First().Text())

	p.logger.Info().
		Str("url", url).
		Str("final_url", result.FinalURL).
		Int("status", result.StatusCode).
		Str("title", result.Title).
		Dur("latency", result.Latency).
		Msg("Preflight check passed")

	return result, nil
}
