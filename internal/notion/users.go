package notion

import (
	"context"
	"fmt"
)

func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if user, ok := c.people.Get(userID); ok {
		return user, nil
	}

	v, err, _ := c.group.Do("user:"+userID, func() (any, error) {
		return c.fetchUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	user := v.(*User)
	c.people.ContainsOrAdd(userID, user)
	return user, nil
}

func (c *Client) fetchUser(ctx context.Context, userID string) (user *User, err error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetSuccessResult(&user).
		Get(v1User)

	if err := handleAPIError(resp, err, "get user"); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("get user %s: %w", userID, ErrEmptyResponse)
	}
	return user, nil
}

// PersonName resolves a user id to its display name.
func (c *Client) PersonName(ctx context.Context, userID string) (string, error) {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}
