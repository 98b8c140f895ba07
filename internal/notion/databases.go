package notion

import (
	"context"
	"fmt"
)

// QueryDatabase returns every page of a database matching filter, oldest edit
// first. A nil filter returns all pages.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter *Filter) ([]*Page, error) {
	body := &queryRequest{
		Filter:   filter,
		Sorts:    []Sort{{Timestamp: string(TypeLastEditedTime), Direction: "ascending"}},
		PageSize: defaultPageSize,
	}

	return paginate("database query", func(cursor string) (result *listResponse[*Page], err error) {
		body.StartCursor = cursor
		resp, err := c.client.R().
			SetContext(ctx).
			SetPathParam("id", databaseID).
			SetBody(body).
			SetSuccessResult(&result).
			Post(v1DatabaseQuery)

		if err := handleAPIError(resp, err, "database query"); err != nil {
			return nil, err
		}
		return result, nil
	})
}

// ListDatabases returns every database shared with the integration.
func (c *Client) ListDatabases(ctx context.Context) ([]*Database, error) {
	body := &searchRequest{
		Filter:   &searchFilter{Property: "object", Value: "database"},
		PageSize: defaultPageSize,
	}

	return paginate("database search", func(cursor string) (result *listResponse[*Database], err error) {
		body.StartCursor = cursor
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			SetSuccessResult(&result).
			Post(v1Search)

		if err := handleAPIError(resp, err, "database search"); err != nil {
			return nil, err
		}
		return result, nil
	})
}

func (c *Client) GetDatabase(ctx context.Context, databaseID string) (db *Database, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", databaseID).
		SetSuccessResult(&db).
		Get(v1Database)

	if err := handleAPIError(resp, err, "get database"); err != nil {
		return nil, err
	}
	if db == nil || db.ID == "" {
		return nil, fmt.Errorf("get database %s: %w", databaseID, ErrEmptyResponse)
	}
	return db, nil
}
