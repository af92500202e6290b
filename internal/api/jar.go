package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// persistTimeout bounds a single cookie write to the store.
const persistTimeout = 5 * time.Second

// StoredCookie is a cookie as kept by a CookieStore.
type StoredCookie struct {
	Name  string
	Value string
	Path  string

	// Expires is zero for session cookies, which are kept until cleared.
	Expires time.Time
}

// CookieStore persists session cookies per server between process runs.
type CookieStore interface {
	LoadCookies(ctx context.Context, server string) ([]StoredCookie, error)
	SaveCookie(ctx context.Context, server string, cookie StoredCookie) error
	DeleteCookie(ctx context.Context, server, name string) error
	ClearCookies(ctx context.Context, server string) error
}

// PersistentJar is an http.CookieJar that mirrors cookies set by one server
// into a CookieStore, so a later process can resume the session.
type PersistentJar struct {
	jar    *cookiejar.Jar
	store  CookieStore
	server *url.URL
	logger *slog.Logger

	// mu serialises store writes so the stored state follows server order.
	mu sync.Mutex
}

// NewPersistentJar creates a jar for serverURL and replays unexpired cookies
// from store.
func NewPersistentJar(ctx context.Context, serverURL string, store CookieStore, logger *slog.Logger) (*PersistentJar, error) {
	server, err := parseServerURL(serverURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	pj := &PersistentJar{jar: jar, store: store, server: server, logger: logger}

	stored, err := store.LoadCookies(ctx, pj.key())
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	now := time.Now()
	replay := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		replay = append(replay, &http.Cookie{
			Name:    sc.Name,
			Value:   sc.Value,
			Path:    sc.Path,
			Expires: sc.Expires,
		})
	}
	if len(replay) > 0 {
		jar.SetCookies(server, replay)
		logger.Debug("restored session cookies", "count", len(replay))
	}
	return pj, nil
}

// key is the store key for this server.
func (pj *PersistentJar) key() string {
	return pj.server.Scheme + "://" + pj.server.Host
}

// SetCookies implements http.CookieJar.
func (pj *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	pj.jar.SetCookies(u, cookies)
	if u.Host != pj.server.Host {
		return
	}

	pj.mu.Lock()
	defer pj.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	now := time.Now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		var err error
		if c.MaxAge < 0 || (!expires.IsZero() && expires.Before(now)) {
			err = pj.store.DeleteCookie(ctx, pj.key(), c.Name)
		} else {
			err = pj.store.SaveCookie(ctx, pj.key(), StoredCookie{
				Name:    c.Name,
				Value:   c.Value,
				Path:    c.Path,
				Expires: expires,
			})
		}
		if err != nil {
			pj.logger.Warn("failed to persist cookie", "name", c.Name, "error", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (pj *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return pj.jar.Cookies(u)
}

// Clear forgets every cookie for the server, in memory and in the store.
func (pj *PersistentJar) Clear(ctx context.Context) error {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	// cookiejar has no delete; expire what the server set.
	expired := make([]*http.Cookie, 0)
	for _, c := range pj.jar.Cookies(pj.server) {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		pj.jar.SetCookies(pj.server, expired)
	}
	return pj.store.ClearCookies(ctx, pj.key())
}
