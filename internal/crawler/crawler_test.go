package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maraichr/curator/internal/config"
)

func testCrawler() *Crawler {
	return New(config.CrawlerConfig{
		MaxPages:       50,
		MaxDepth:       5,
		RequestTimeout: 5 * time.Second,
		UserAgent:      "curator-test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func page(links ...string) string {
	body := "<html><body><h1>page</h1>"
	for _, l := range links {
		body += fmt.Sprintf(`<a href="%s">link</a>`, l)
	}
	return body + "</body></html>"
}

func TestCrawlFollowsSameHostLinks(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, page("/a", "/b", "https://elsewhere.example/x", "/img.png"))
		case "/a":
			fmt.Fprint(w, page("/b")) // duplicate target
		case "/b":
			fmt.Fprint(w, page())
		default:
			http.NotFound(w, r)
		}
	})

	var urls []string
	fetched, err := testCrawler().Crawl(context.Background(), srv.URL, 0, 0, func(p Page, fetched, total int) error {
		urls = append(urls, p.URL)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if fetched != 3 {
		t.Errorf("fetched = %d, want 3 (got %v)", fetched, urls)
	}
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := 0
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		n++
		fmt.Fprint(w, page(fmt.Sprintf("/p%d", n), fmt.Sprintf("/q%d", n)))
	})

	fetched, err := testCrawler().Crawl(context.Background(), srv.URL, 4, 0, func(p Page, fetched, total int) error {
		if total > 4 {
			t.Errorf("reported total %d exceeds max pages", total)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if fetched != 4 {
		t.Errorf("fetched = %d, want 4", fetched)
	}
}

func TestCrawlRespectsMaxDepth(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		next := "/deeper" + r.URL.Path
		fmt.Fprint(w, page(next))
	})

	fetched, err := testCrawler().Crawl(context.Background(), srv.URL, 0, 2, discardPages)
	if err != nil {
		t.Fatal(err)
	}
	// Depth 0 (seed), 1, 2: three pages, the depth-2 page's links are not followed.
	if fetched != 3 {
		t.Errorf("fetched = %d, want 3", fetched)
	}
}

func discardPages(Page, int, int) error { return nil }

func TestCrawlOnPageErrorAborts(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("/a", "/b", "/c"))
	})

	abort := errors.New("stop now")
	fetched, err := testCrawler().Crawl(context.Background(), srv.URL, 0, 0, func(Page, int, int) error {
		return abort
	})
	if !errors.Is(err, abort) {
		t.Errorf("err = %v, want abort error", err)
	}
	if fetched != 1 {
		t.Errorf("fetched = %d, want 1", fetched)
	}
}

func TestCrawlCancelledContext(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("/a"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCrawler().Crawl(ctx, srv.URL, 0, 0, discardPages)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCrawlSkipsFailedPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, page("/broken", "/ok"))
		case "/ok":
			fmt.Fprint(w, page())
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	fetched, err := testCrawler().Crawl(context.Background(), srv.URL, 0, 0, discardPages)
	if err != nil {
		t.Fatal(err)
	}
	if fetched != 2 {
		t.Errorf("fetched = %d, want 2", fetched)
	}
}

func TestCrawlSitemapSeed(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/one</loc></url>
  <url><loc>%s/two</loc></url>
  <url><loc>https://elsewhere.example/three</loc></url>
</urlset>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page())
	})

	var urls []string
	fetched, err := testCrawler().Crawl(context.Background(), srv.URL+"/sitemap.xml", 0, 0, func(p Page, fetched, total int) error {
		urls = append(urls, p.URL)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	// Off-host sitemap entries are dropped; the sitemap itself is not a page.
	if fetched != 2 {
		t.Errorf("fetched = %d, want 2 (got %v)", fetched, urls)
	}
}

func TestDetectSeed(t *testing.T) {
	tests := []struct {
		seed string
		want SeedKind
	}{
		{"https://docs.example.com/", SeedPage},
		{"https://docs.example.com/sitemap.xml", SeedSitemap},
		{"https://docs.example.com/guide/sitemap.xml", SeedSitemap},
		{"https://docs.example.com/sitemap.xml.html", SeedPage},
	}
	for _, tt := range tests {
		if got := DetectSeed(tt.seed); got != tt.want {
			t.Errorf("DetectSeed(%q) = %v, want %v", tt.seed, got, tt.want)
		}
	}
}

func TestExtractLinks(t *testing.T) {
	body := []byte(`<html><body>
<a href="/rel">rel</a>
<a href="https://host.example/abs">abs</a>
<a href="https://other.example/off">off-host</a>
<a href="/style.css">asset</a>
<a href="/page#section">fragment</a>
<a href="mailto:x@example.com">mail</a>
</body></html>`)

	links := extractLinks(body, "https://host.example/start", "host.example")
	want := []string{
		"https://host.example/rel",
		"https://host.example/abs",
		"https://host.example/page",
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}
