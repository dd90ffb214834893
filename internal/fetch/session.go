// Package fetch is the outbound request layer. It issues paced,
// retry-wrapped HTTP requests with randomized browser identity headers
// and hands parsed documents back to the adapters. A failed fetch is an
// absence of data, not a run-ending error; callers continue with
// whatever they have.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pkravets/revscout/internal/model"
)

// retryableStatus is the fixed set of transient HTTP status codes worth
// retrying. Everything else fails fast.
var retryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// defaultUserAgents is the rotation pool of client identities.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// Policy bundles the evasion knobs: the identity pool requests rotate
// through and the inter-request delay function. Injectable so tests can
// substitute deterministic values.
type Policy struct {
	UserAgents []string
	Delay      func() time.Duration
}

// DefaultPolicy returns the production policy: the built-in identity
// pool and a uniform random delay within [minDelay, maxDelay].
func DefaultPolicy(minDelay, maxDelay time.Duration) Policy {
	return Policy{
		UserAgents: defaultUserAgents,
		Delay: func() time.Duration {
			if maxDelay <= minDelay {
				return minDelay
			}
			return minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)))
		},
	}
}

// Session issues outbound requests on behalf of adapters. Execution is
// strictly sequential; pacing comes from the mandatory inter-request
// delay plus a per-domain rate floor.
type Session struct {
	client  *resty.Client
	policy  Policy
	limiter *domainLimiter
	cache   *gocache.Cache
	robots  *RobotsChecker
	maxBody int64

	mu      sync.Mutex
	lastURL string
}

// NewSession creates a session from the HTTP configuration and an
// evasion policy.
func NewSession(cfg *model.Config, policy Policy) *Session {
	client := resty.New()
	client.SetTimeout(cfg.HTTP.Timeout)
	client.SetRetryCount(cfg.HTTP.MaxRetries)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(30 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil || r == nil {
			return false
		}
		return retryableStatus[r.StatusCode()]
	})
	if cfg.HTTP.InsecureTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if cfg.HTTP.Proxy != "" {
		client.SetProxy(cfg.HTTP.Proxy)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if len(policy.UserAgents) == 0 {
		policy.UserAgents = defaultUserAgents
	}
	if policy.Delay == nil {
		policy.Delay = DefaultPolicy(cfg.HTTP.MinDelay, cfg.HTTP.MaxDelay).Delay
	}

	s := &Session{
		client:  client,
		policy:  policy,
		limiter: newDomainLimiter(cfg.HTTP.RequestsPerSecond, 1),
		maxBody: cfg.HTTP.MaxBodyBytes,
	}
	if cfg.Cache.Enabled {
		s.cache = gocache.New(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}
	if cfg.Robots.Respect {
		s.robots = NewRobotsChecker(policy.UserAgents[0], cfg.HTTP.Timeout)
	}
	return s
}

// Fetch retrieves a URL and parses the response body into a document.
// Any unrecoverable HTTP or network fault is returned as an error the
// caller should treat as "no data, continue".
func (s *Session) Fetch(ctx context.Context, rawURL string, params url.Values) (*goquery.Document, error) {
	if _, err := parseURL(rawURL); err != nil {
		return nil, err
	}

	key := cacheKey(rawURL, params)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			return goquery.NewDocumentFromReader(bytes.NewReader(cached.([]byte)))
		}
	}

	body, err := s.get(ctx, rawURL, params, nil)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, body, gocache.DefaultExpiration)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// FetchJSON retrieves a URL and unmarshals the JSON response into out.
// Used by the API-based adapter; same pacing and retry rules apply.
func (s *Session) FetchJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	if _, err := parseURL(rawURL); err != nil {
		return err
	}

	body, err := s.get(ctx, rawURL, params, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

func (s *Session) get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) ([]byte, error) {
	if s.robots != nil && !s.robots.IsAllowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	if err := s.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	// Mandatory pause before every request.
	if delay := s.policy.Delay(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req := s.client.R().SetContext(ctx)
	req.SetHeaders(s.identityHeaders())
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Get(rawURL)

	s.mu.Lock()
	s.lastURL = rawURL
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode())
	}

	body := resp.Body()
	if s.maxBody > 0 && int64(len(body)) > s.maxBody {
		slog.Debug("truncating oversized response", "url", rawURL, "bytes", len(body))
		body = body[:s.maxBody]
	}
	return body, nil
}

// identityHeaders assembles a realistic browser header set with a
// client identity drawn at random from the pool. The previous request's
// URL rides along as the referer.
func (s *Session) identityHeaders() map[string]string {
	h := map[string]string{
		"User-Agent":                s.policy.UserAgents[rand.Intn(len(s.policy.UserAgents))],
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Cache-Control":             "max-age=0",
	}

	s.mu.Lock()
	if s.lastURL != "" {
		h["Referer"] = s.lastURL
	}
	s.mu.Unlock()

	return h
}

func cacheKey(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

func parseURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("no host in URL: %s", rawURL)
	}
	return parsed, nil
}
