package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/openmined/notionsync/internal/notion"
)

const minuteLayoutLen = len("2006-01-02T15:04")

// ToLocal converts one remote value into a front matter value: bool, string,
// float64, []string, []any or map[string]any. It returns ErrUnsupported for
// kinds with no local form; any other error comes from the resolver.
func ToLocal(ctx context.Context, r Resolver, v notion.PropertyValue) (any, error) {
	switch v.Type {
	case notion.TypeCheckbox:
		return v.Checkbox != nil && *v.Checkbox, nil

	case notion.TypeCreatedBy:
		return personName(ctx, r, v.CreatedBy), nil
	case notion.TypeLastEditedBy:
		return personName(ctx, r, v.LastEditedBy), nil

	case notion.TypeCreatedTime:
		return truncateMinute(v.CreatedTime), nil
	case notion.TypeLastEditedTime:
		return truncateMinute(v.LastEditedTime), nil

	case notion.TypeDate:
		return dateToLocal(v.Date), nil

	case notion.TypeEmail:
		return deref(v.Email), nil
	case notion.TypePhoneNumber:
		return deref(v.PhoneNumber), nil
	case notion.TypeURL:
		return deref(v.URL), nil

	case notion.TypeFiles:
		names := make([]string, 0, len(v.Files))
		for _, f := range v.Files {
			names = append(names, f.Name)
		}
		return names, nil

	case notion.TypeFormula:
		return formulaToLocal(v.Formula)

	case notion.TypeMultiSelect:
		names := make([]string, 0, len(v.MultiSelect))
		for _, opt := range v.MultiSelect {
			names = append(names, opt.Name)
		}
		return names, nil

	case notion.TypeNumber:
		return formatNumber(v.Number), nil

	case notion.TypePeople:
		names := make([]string, 0, len(v.People))
		for i := range v.People {
			names = append(names, personName(ctx, r, &v.People[i]))
		}
		return names, nil

	case notion.TypeRelation:
		links := make([]string, 0, len(v.Relation))
		for _, ref := range v.Relation {
			title, err := r.PageTitle(ctx, ref.ID)
			if err != nil {
				return nil, fmt.Errorf("relation %s: %w", ref.ID, err)
			}
			links = append(links, WikiLink(title))
		}
		return links, nil

	case notion.TypeRichText:
		return notion.PlainText(v.RichText), nil
	case notion.TypeTitle:
		return notion.PlainText(v.Title), nil

	case notion.TypeRollup:
		return rollupToLocal(ctx, r, v.Rollup)

	case notion.TypeSelect:
		return optionName(v.Select), nil
	case notion.TypeStatus:
		return optionName(v.Status), nil

	case notion.TypeUniqueID:
		return uniqueIDToLocal(v.UniqueID), nil

	case notion.TypeVerification:
		if v.Verification == nil || v.Verification.Date == nil {
			return "", nil
		}
		return dateToLocal(v.Verification.Date), nil
	}

	return nil, ErrUnsupported
}

// personName yields "" for deleted or unreadable users.
func personName(ctx context.Context, r Resolver, u *notion.User) string {
	if u == nil || u.ID == "" {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	name, err := r.PersonName(ctx, u.ID)
	if err != nil {
		slog.Debug("person lookup failed", "user", u.ID, "error", err)
		return ""
	}
	return name
}

func formulaToLocal(f *notion.Formula) (any, error) {
	if f == nil {
		return nil, ErrUnsupported
	}
	switch f.Type {
	case notion.ResultBoolean:
		return strconv.FormatBool(f.Boolean != nil && *f.Boolean), nil
	case notion.ResultDate:
		return dateToLocal(f.Date), nil
	case notion.ResultNumber:
		return formatNumber(f.Number), nil
	case notion.ResultString:
		return deref(f.String), nil
	}
	return nil, ErrUnsupported
}

func rollupToLocal(ctx context.Context, r Resolver, ru *notion.Rollup) (any, error) {
	if ru == nil {
		return nil, ErrUnsupported
	}
	switch ru.Type {
	case notion.ResultArray:
		items := make([]any, 0, len(ru.Array))
		for _, item := range ru.Array {
			v, err := ToLocal(ctx, r, item)
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case notion.ResultDate:
		return dateToLocal(ru.Date), nil
	case notion.ResultNumber:
		if ru.Number == nil {
			return "", nil
		}
		return *ru.Number, nil
	}
	return nil, ErrUnsupported
}

// dateToLocal drops seconds. A range becomes {start, end}.
func dateToLocal(d *notion.DateValue) any {
	if d == nil || d.Start == "" {
		return ""
	}
	if d.End != nil && *d.End != "" {
		return map[string]any{
			"start": truncateMinute(d.Start),
			"end":   truncateMinute(*d.End),
		}
	}
	return truncateMinute(d.Start)
}

func truncateMinute(s string) string {
	if len(s) > minuteLayoutLen {
		return s[:minuteLayoutLen]
	}
	return s
}

func uniqueIDToLocal(u *notion.UniqueID) string {
	if u == nil {
		return ""
	}
	prefix := deref(u.Prefix)
	if u.Number == nil {
		return prefix
	}
	n := strconv.FormatInt(*u.Number, 10)
	if prefix == "" {
		return n
	}
	return prefix + "-" + n
}

func optionName(o *notion.SelectOption) string {
	if o == nil {
		return ""
	}
	return o.Name
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WikiLink renders a page title as an internal link.
func WikiLink(title string) string {
	return "[[" + title + "]]"
}
