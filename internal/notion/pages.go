package notion

import (
	"context"
	"fmt"
)

// GetPage returns a page from the memo cache, fetching it on a miss.
// refresh skips the cache and replaces the cached copy.
func (c *Client) GetPage(ctx context.Context, pageID string, refresh bool) (*Page, error) {
	if !refresh {
		if page, ok := c.pages.Get(pageID); ok {
			return page, nil
		}
	}

	v, err, _ := c.group.Do("page:"+pageID, func() (any, error) {
		return c.fetchPage(ctx, pageID)
	})
	if err != nil {
		return nil, err
	}

	page := v.(*Page)
	if refresh {
		c.pages.Add(pageID, page)
	} else {
		c.pages.ContainsOrAdd(pageID, page)
	}
	return page, nil
}

func (c *Client) fetchPage(ctx context.Context, pageID string) (page *Page, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		SetSuccessResult(&page).
		Get(v1Page)

	if err := handleAPIError(resp, err, "get page"); err != nil {
		return nil, err
	}
	if page == nil || page.ID == "" {
		return nil, fmt.Errorf("get page %s: %w", pageID, ErrEmptyResponse)
	}
	return page, nil
}

// PageTitle resolves a referenced page to its title.
func (c *Client) PageTitle(ctx context.Context, pageID string) (string, error) {
	page, err := c.GetPage(ctx, pageID, false)
	if err != nil {
		return "", err
	}
	return page.Title()
}

// UpdatePage patches properties on a page. It is never retried.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]PropertyValue) (page *Page, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetPathParam("id", pageID).
		SetBody(&updatePageRequest{Properties: properties}).
		SetSuccessResult(&page).
		Patch(v1Page)

	if err := handleAPIError(resp, err, "update page"); err != nil {
		return nil, err
	}
	if page == nil || page.ID == "" {
		return nil, fmt.Errorf("update page %s: %w", pageID, ErrEmptyResponse)
	}

	c.pages.Add(page.ID, page)
	return page, nil
}

// CreatePage adds a page to a database. It is never retried so a slow
// response cannot produce duplicate pages.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]PropertyValue) (page *Page, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetBody(&createPageRequest{
			Parent:     Parent{Type: "database_id", DatabaseID: databaseID},
			Properties: properties,
		}).
		SetSuccessResult(&page).
		Post(v1Pages)

	if err := handleAPIError(resp, err, "create page"); err != nil {
		return nil, err
	}
	if page == nil || page.ID == "" {
		return nil, fmt.Errorf("create page in %s: %w", databaseID, ErrEmptyResponse)
	}
	return page, nil
}
