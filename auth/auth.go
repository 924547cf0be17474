// Package auth fetches and caches OAuth2 client-credentials tokens for
// outgoing HTTP requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: conf.toOauth2Config(),
	}
}

// GetToken returns the cached access token while it is valid and requests a
// new one otherwise.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

func (c *ClientCred) ensure(ctx context.Context) error {
	if c.token != nil && c.token.Valid() {
		return nil
	}
	return c.fetch(ctx)
}

func (c *ClientCred) fetch(ctx context.Context) error {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// ForceRefresh discards the cached token and requests a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// SetAuthHeader sets the Authorization header of r.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(r.Context()); err != nil {
		return err
	}
	c.token.SetAuthHeader(r)
	return nil
}

// Transport authorizes every request before handing it to Base. A 401 answer
// triggers one token refresh and a single retry for requests without a body.
type Transport struct {
	Cred *ClientCred
	Base http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	req := r.Clone(r.Context())
	if err := t.Cred.SetAuthHeader(req); err != nil {
		return nil, err
	}
	resp, err := t.base().RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || r.Body != nil {
		return resp, err
	}
	_ = resp.Body.Close()
	if _, err := t.Cred.ForceRefresh(r.Context()); err != nil {
		return nil, err
	}
	retry := r.Clone(r.Context())
	if err := t.Cred.SetAuthHeader(retry); err != nil {
		return nil, err
	}
	return t.base().RoundTrip(retry)
}

// NewHTTPClient returns base unchanged when conf is not enabled, and a copy
// of base with an authorizing transport otherwise.
func NewHTTPClient(base *http.Client, conf *Conf) *http.Client {
	if !conf.Enabled() {
		return base
	}
	c := *base
	c.Transport = &Transport{Cred: NewClientCred(*conf), Base: base.Transport}
	return &c
}
