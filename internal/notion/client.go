package notion

import (
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/imroc/req/v3"
	"github.com/openmined/notionsync/internal/version"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL      = "https://api.notion.com"
	APIVersion          = "2022-06-28"
	HeaderNotionVersion = "Notion-Version"

	defaultRetryCount = 3
	defaultTimeout    = 30 * time.Second
	defaultCacheSize  = 4096
	defaultPageSize   = 100
)

const (
	v1Search        = "/v1/search"
	v1Database      = "/v1/databases/{id}"
	v1DatabaseQuery = "/v1/databases/{id}/query"
	v1Pages         = "/v1/pages"
	v1Page          = "/v1/pages/{id}"
	v1User          = "/v1/users/{id}"
)

type Config struct {
	BaseURL    string        // defaults to DefaultBaseURL
	APIKey     string        // integration secret, required
	RetryCount int           // retries on 429, defaults to 3
	Timeout    time.Duration // per request timeout
	CacheSize  int           // entries per memo cache
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Client talks to the Notion REST API. People and page lookups are memoised
// for the lifetime of the client; entries are only ever added, never invalidated.
type Client struct {
	client *req.Client
	people *lru.Cache[string, *User]
	pages  *lru.Cache[string, *Page]
	group  singleflight.Group
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	retries := cfg.RetryCount
	if retries <= 0 {
		retries = defaultRetryCount
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	people, err := lru.New[string, *User](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("people cache: %w", err)
	}
	pages, err := lru.New[string, *Page](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("pages cache: %w", err)
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetUserAgent(version.UserAgent()).
		SetCommonBearerAuthToken(cfg.APIKey).
		SetCommonHeader(HeaderNotionVersion, APIVersion).
		SetCommonHeader("Accept", "application/json").
		SetCommonContentType("application/json").
		SetCommonErrorResult(&APIError{}).
		SetCommonRetryCount(retries).
		SetCommonRetryBackoffInterval(500*time.Millisecond, 8*time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err == nil && resp != nil && resp.StatusCode == http.StatusTooManyRequests
		}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{
		client: client,
		people: people,
		pages:  pages,
	}, nil
}

// paginate follows next_cursor until the service reports no more results.
// Pages are appended in the order received.
func paginate[T any](op string, fetch func(cursor string) (*listResponse[T], error)) ([]T, error) {
	var all []T
	cursor := ""
	for {
		page, err := fetch(cursor)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrEmptyResponse)
		}
		all = append(all, page.Results...)

		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return all, nil
		}
		if *page.NextCursor == cursor {
			return nil, fmt.Errorf("%s: cursor %q did not advance", op, cursor)
		}
		cursor = *page.NextCursor
	}
}
