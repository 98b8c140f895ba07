// Package property converts Notion property values to front matter values and back.
package property

import (
	"context"
	"errors"
)

// ErrUnsupported marks a value that has no local representation. Callers omit the field.
var ErrUnsupported = errors.New("property: unsupported kind")

// Resolver looks up entities referenced from a property value.
type Resolver interface {
	PersonName(ctx context.Context, userID string) (string, error)
	PageTitle(ctx context.Context, pageID string) (string, error)
}
