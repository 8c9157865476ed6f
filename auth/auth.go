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
	conf  clientcredentials.Config
	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: conf.toOauth2Config(),
	}
}

// GetToken returns the cached access token or requests a new one when it has
// expired.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx, false); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token, e.g. after a 401 from the registrar.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx, true); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(r.Context(), false); err != nil {
		return err
	}
	c.token.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) ensure(ctx context.Context, force bool) error {
	if !force && c.token != nil && c.token.Valid() {
		return nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// Transport decorates base so every request carries a bearer token. A 401
// response triggers one refresh and retry for requests without a body.
type Transport struct {
	Cred *ClientCred
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	if err := t.Cred.SetAuthHeader(r); err != nil {
		return nil, err
	}
	resp, err := base.RoundTrip(r)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || (req.Body != nil && req.Body != http.NoBody) {
		return resp, err
	}
	resp.Body.Close()
	tok, err := t.Cred.ForceRefresh(req.Context())
	if err != nil {
		return nil, err
	}
	r = req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+tok)
	return base.RoundTrip(r)
}

// Client returns an http.Client that authenticates with conf. When conf is
// empty base is returned unchanged.
func Client(conf Conf, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	if !conf.Enabled() {
		return base
	}
	out := *base
	out.Transport = &Transport{Cred: NewClientCred(conf), Base: base.Transport}
	return &out
}
