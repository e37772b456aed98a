// Package client talks to a callsign server.
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/darmiel/callsign/internal/buildinfo"
)

const DefaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	cache      *CredentialCache
}

type Option func(*Client)

// WithAuthToken sets the admin session token sent with admin requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache makes GetUserSig serve credentials from cache while they are fresh.
func WithCache(cache *CredentialCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the credential cache, if any.
func (c *Client) Cache() *CredentialCache {
	return c.cache
}

type urlBuilder struct {
	base   string
	path   string
	params map[string]string
	query  url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{
		base:   c.baseURL,
		params: make(map[string]string),
		query:  make(url.Values),
	}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

// setPathParam replaces "{name}" in the path with the escaped value.
func (b *urlBuilder) setPathParam(name, value string) *urlBuilder {
	b.params[name] = value
	return b
}

func (b *urlBuilder) addQueryParam(key string, value any) *urlBuilder {
	b.query.Add(key, fmt.Sprint(value))
	return b
}

func (b *urlBuilder) build() string {
	path := b.path
	for name, value := range b.params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	u := b.base + path
	if len(b.query) > 0 {
		u += "?" + b.query.Encode()
	}
	return u
}

func userAgent() string {
	return buildinfo.UserAgent()
}
