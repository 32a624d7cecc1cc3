// Package prismic is a read-only client for the Prismic REST API (v2) that
// answers the blog's content queries.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/content"
)

const (
	documentType     = "post"
	defaultTimeout   = 15 * time.Second
	defaultRefTTL    = 30 * time.Second
	uidPageSize      = 100
	orderingNewest   = "[document.first_publication_date desc]"
	accessTokenParam = "access_token"
)

// ErrForeignPage is returned by FetchPage for URLs outside the configured repository.
var ErrForeignPage = errors.New("prismic: page url does not belong to repository")

// APIError reports a non-success HTTP status from the API.
type APIError struct {
	Status int
	URL    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prismic: %s returned status %d", e.URL, e.Status)
}

// Client queries one Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client
	refTTL      time.Duration

	mu         sync.RWMutex
	masterRef  string
	refFetched time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRefTTL sets how long the master ref is reused before it is refreshed.
func WithRefTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.refTTL = ttl
	}
}

// New returns a client for the API endpoint, e.g. "https://repo.cdn.prismic.io/api/v2".
func New(endpoint, accessToken string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) url", endpoint)
	}
	c := &Client{
		endpoint:    u,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		refTTL:      defaultRefTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListPosts returns the first page of posts, newest first.
func (c *Client) ListPosts(ctx context.Context, pageSize int) (content.Page, error) {
	res, err := c.search(ctx, fmt.Sprintf(`[[at(document.type,"%s")]]`, documentType), pageSize)
	if err != nil {
		return content.Page{}, fmt.Errorf("prismic: list posts: %w", err)
	}
	return c.decodePage(res)
}

// FetchPage follows a next-page URL previously returned by ListPosts or FetchPage.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (content.Page, error) {
	u, err := c.ownURL(pageURL)
	if err != nil {
		return content.Page{}, err
	}
	var res searchResponse
	if err := c.getJSON(ctx, u, &res); err != nil {
		return content.Page{}, fmt.Errorf("prismic: fetch page: %w", err)
	}
	return c.decodePage(res)
}

// GetPost returns the post with the given uid, or content.ErrNotFound.
func (c *Client) GetPost(ctx context.Context, uid string) (content.PostDetail, error) {
	q := fmt.Sprintf(`[[at(my.%s.uid,"%s")]]`, documentType, escapeQuery(uid))
	res, err := c.search(ctx, q, 1)
	if err != nil {
		return content.PostDetail{}, fmt.Errorf("prismic: get post %q: %w", uid, err)
	}
	if len(res.Results) == 0 {
		return content.PostDetail{}, content.ErrNotFound
	}
	return decodeDetail(res.Results[0])
}

// ListUIDs returns the uid of every post, following all result pages.
func (c *Client) ListUIDs(ctx context.Context) ([]string, error) {
	res, err := c.search(ctx, fmt.Sprintf(`[[at(document.type,"%s")]]`, documentType), uidPageSize)
	if err != nil {
		return nil, fmt.Errorf("prismic: list uids: %w", err)
	}
	var uids []string
	seen := make(map[string]struct{})
	for {
		for _, doc := range res.Results {
			if doc.UID == nil || *doc.UID == "" {
				return nil, fmt.Errorf("%w: document %s has no uid", content.ErrMalformedRecord, doc.ID)
			}
			uids = append(uids, *doc.UID)
		}
		if res.NextPage == nil || *res.NextPage == "" {
			return uids, nil
		}
		next := *res.NextPage
		if _, ok := seen[next]; ok {
			return uids, nil
		}
		seen[next] = struct{}{}
		u, err := c.ownURL(next)
		if err != nil {
			return nil, err
		}
		res = searchResponse{}
		if err := c.getJSON(ctx, u, &res); err != nil {
			return nil, fmt.Errorf("prismic: list uids: %w", err)
		}
	}
}

// ResolvePreview checks a preview token against the API and returns the uid
// of the previewed document. An empty documentID resolves to "".
func (c *Client) ResolvePreview(ctx context.Context, token, documentID string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("prismic: empty preview token")
	}
	if documentID == "" {
		return "", nil
	}
	ctx = content.WithPreviewRef(ctx, token)
	res, err := c.search(ctx, fmt.Sprintf(`[[at(document.id,"%s")]]`, escapeQuery(documentID)), 1)
	if err != nil {
		return "", fmt.Errorf("prismic: resolve preview: %w", err)
	}
	if len(res.Results) == 0 || res.Results[0].UID == nil {
		return "", content.ErrNotFound
	}
	return *res.Results[0].UID, nil
}

func (c *Client) search(ctx context.Context, q string, pageSize int) (searchResponse, error) {
	ref, err := c.ref(ctx)
	if err != nil {
		return searchResponse{}, err
	}
	params := url.Values{}
	params.Set("ref", ref)
	params.Set("q", q)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("orderings", orderingNewest)
	if c.accessToken != "" {
		params.Set(accessTokenParam, c.accessToken)
	}
	u := *c.endpoint
	u.Path += "/documents/search"
	u.RawQuery = params.Encode()

	var res searchResponse
	if err := c.getJSON(ctx, u.String(), &res); err != nil {
		return searchResponse{}, err
	}
	return res, nil
}

// ref returns the preview ref from ctx or the cached master ref.
func (c *Client) ref(ctx context.Context) (string, error) {
	if ref := content.PreviewRef(ctx); ref != "" {
		return ref, nil
	}
	c.mu.RLock()
	if c.masterRef != "" && time.Since(c.refFetched) < c.refTTL {
		ref := c.masterRef
		c.mu.RUnlock()
		return ref, nil
	}
	c.mu.RUnlock()

	u := *c.endpoint
	if c.accessToken != "" {
		u.RawQuery = url.Values{accessTokenParam: {c.accessToken}}.Encode()
	}
	var api apiResponse
	if err := c.getJSON(ctx, u.String(), &api); err != nil {
		return "", fmt.Errorf("prismic: fetch refs: %w", err)
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.refFetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", errors.New("prismic: api has no master ref")
}

// ownURL checks that raw points at this repository's search endpoint and
// restores the access token that public page URLs have stripped.
func (c *Client) ownURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForeignPage, err)
	}
	if u.Host != c.endpoint.Host || u.Path != c.endpoint.Path+"/documents/search" {
		return "", fmt.Errorf("%w: %s", ErrForeignPage, raw)
	}
	u.Scheme = c.endpoint.Scheme
	if c.accessToken != "" {
		q := u.Query()
		q.Set(accessTokenParam, c.accessToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// publicURL strips credentials from a next-page URL before it leaves the server.
func publicURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(accessTokenParam) {
		q.Del(accessTokenParam)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &APIError{Status: resp.StatusCode, URL: publicURL(u)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", content.ErrMalformedRecord, err)
	}
	return nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
