package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "thermalprint/internal/log"
)

// Feed is a single ICS subscription.
type Feed struct {
	ID  string
	URL string
}

// Payload is the body of one feed, either fresh or revalidated from disk.
type Payload struct {
	Feed      Feed
	Body      []byte
	FromCache bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds, revalidating against a disk cache with
// ETag / Last-Modified. It never serves stale data on failure: a feed that
// cannot be fetched fails the run.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher caches under cacheDir. A nil client gets a 15s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// FetchAll fetches every feed in order and stops at the first failure.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) ([]Payload, error) {
	out := make([]Payload, 0, len(feeds))
	for _, feed := range feeds {
		p, err := f.Fetch(ctx, feed)
		if err != nil {
			return nil, fmt.Errorf("ics: fetch %s: %w", feed.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Fetch downloads feed, or returns the cached body when the server answers
// 304 Not Modified.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (Payload, error) {
	if feed.URL == "" {
		return Payload{}, errors.New("feed URL is empty")
	}

	dir := f.cacheDirFor(feed.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Payload{}, err
	}
	meta, _ := readMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return Payload{}, err
	}
	// Only revalidate when there is a body to fall back on.
	if len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Payload{}, err
		}
		meta = cacheMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := writeCache(dir, meta, body); err != nil {
			appLog.Warn("ics cache save failed", "id", feed.ID, "url", redactURL(feed.URL), "err", err)
		}
		appLog.Debug("ics fetched", "id", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return Payload{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		appLog.Debug("ics not modified", "id", feed.ID, "url", redactURL(feed.URL))
		return Payload{Feed: feed, Body: cached, FromCache: true}, nil

	default:
		return Payload{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
}

func (f *Fetcher) cacheDirFor(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func readMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func writeCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := writeFileAtomic(filepath.Join(dir, "body.ics"), body); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, "meta.json"), data)
}

// writeFileAtomic replaces path via a temp file and rename, so concurrent
// readers (a preview and a scheduled run) never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// redactURL keeps only scheme and host; calendar URLs usually embed a
// private token.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
