// Package crawler fetches web pages breadth-first from a seed URL, staying on
// the seed's host and honoring page and depth bounds.
package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maraichr/curator/internal/config"
)

// maxPageBytes caps a single fetched document.
const maxPageBytes = 10 * 1024 * 1024

// Page is one fetched document.
type Page struct {
	URL   string
	Depth int
	HTML  []byte
}

// SeedKind describes what the seed URL points at.
type SeedKind string

const (
	SeedPage    SeedKind = "page"
	SeedSitemap SeedKind = "sitemap"
)

type Crawler struct {
	client *http.Client
	cfg    config.CrawlerConfig
	logger *slog.Logger
}

func New(cfg config.CrawlerConfig, logger *slog.Logger) *Crawler {
	return &Crawler{
		client: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:    cfg,
		logger: logger,
	}
}

// DetectSeed classifies the seed URL so the orchestrator can report what kind
// of crawl is about to run.
func DetectSeed(seed string) SeedKind {
	u, err := url.Parse(seed)
	if err != nil {
		return SeedPage
	}
	if strings.HasSuffix(u.Path, "sitemap.xml") {
		return SeedSitemap
	}
	return SeedPage
}

// Crawl walks pages breadth-first from seed. onPage is invoked for every
// fetched page with the running fetched count and the frontier's current
// upper bound; an error return aborts the crawl (this is the cancellation
// checkpoint). Individual page failures are logged and skipped. Returns the
// number of pages fetched.
func (c *Crawler) Crawl(ctx context.Context, seed string, maxPages, maxDepth int, onPage func(page Page, fetched, total int) error) (int, error) {
	seedURL, err := url.Parse(seed)
	if err != nil || !seedURL.IsAbs() {
		return 0, fmt.Errorf("invalid seed url %q", seed)
	}
	if maxPages <= 0 || maxPages > c.cfg.MaxPages {
		maxPages = c.cfg.MaxPages
	}
	if maxDepth <= 0 || maxDepth > c.cfg.MaxDepth {
		maxDepth = c.cfg.MaxDepth
	}

	frontier := []Page{{URL: normalizeURL(seedURL), Depth: 0}}

	// Sitemap seeds pre-fill the frontier and are not fetched as pages
	// themselves.
	if DetectSeed(seed) == SeedSitemap {
		locs, err := c.fetchSitemap(ctx, seed)
		if err != nil {
			return 0, fmt.Errorf("fetch sitemap: %w", err)
		}
		frontier = frontier[:0]
		for _, loc := range locs {
			if u, err := url.Parse(loc); err == nil && u.Host == seedURL.Host {
				frontier = append(frontier, Page{URL: normalizeURL(u), Depth: maxDepth})
			}
		}
	}

	seen := make(map[string]struct{}, len(frontier))
	for _, p := range frontier {
		seen[p.URL] = struct{}{}
	}

	fetched := 0
	for len(frontier) > 0 && fetched < maxPages {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		page := frontier[0]
		frontier = frontier[1:]

		body, contentType, err := c.fetch(ctx, page.URL)
		if err != nil {
			c.logger.Warn("page fetch failed",
				slog.String("url", page.URL),
				slog.String("error", err.Error()))
			continue
		}
		if !strings.Contains(contentType, "html") && !strings.HasPrefix(contentType, "text/") {
			continue
		}

		page.HTML = body
		fetched++

		total := fetched + len(frontier)
		if total > maxPages {
			total = maxPages
		}
		if err := onPage(page, fetched, total); err != nil {
			return fetched, err
		}

		if page.Depth >= maxDepth {
			continue
		}
		for _, link := range extractLinks(body, page.URL, seedURL.Host) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			frontier = append(frontier, Page{URL: link, Depth: page.Depth + 1})
		}
	}

	return fetched, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// sitemapXML is the subset of the sitemap protocol we read.
type sitemapXML struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

func (c *Crawler) fetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	body, _, err := c.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var sm sitemapXML
	if err := xml.Unmarshal(body, &sm); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	locs := make([]string, 0, len(sm.URLs))
	for _, u := range sm.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// skippedExtensions are link targets that are never HTML pages.
var skippedExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".ico": {},
	".css": {}, ".js": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".pdf": {},
	".mp4": {}, ".webm": {}, ".woff": {}, ".woff2": {},
}

// extractLinks pulls same-host anchor targets out of an HTML document.
func extractLinks(body []byte, baseURL, host string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		u, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		if u.Host != host {
			return
		}
		ext := strings.ToLower(pathExt(u.Path))
		if _, skip := skippedExtensions[ext]; skip {
			return
		}
		links = append(links, normalizeURL(u))
	})
	return links
}

func normalizeURL(u *url.URL) string {
	clone := *u
	clone.Fragment = ""
	s := clone.String()
	return strings.TrimSuffix(s, "/")
}

func pathExt(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 && !strings.ContainsRune(p[i:], '/') {
		return p[i:]
	}
	return ""
}
