package property

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/openmined/notionsync/internal/notion"
)

// ToRemote converts a front matter value into a value that can be pushed for
// a property of the given kind. ok is false for kinds Notion computes itself
// or whose local form is ambiguous; those keys must be left out of a patch.
func ToRemote(kind notion.PropertyType, local any) (v notion.PropertyValue, ok bool) {
	v.Type = kind

	switch kind {
	case notion.TypeCheckbox:
		b, _ := local.(bool)
		v.Checkbox = &b

	case notion.TypeDate:
		v.Date = dateToRemote(local)

	case notion.TypeEmail:
		v.Email = optionalString(local)
	case notion.TypePhoneNumber:
		v.PhoneNumber = optionalString(local)
	case notion.TypeURL:
		v.URL = optionalString(local)

	case notion.TypeMultiSelect:
		names := stringList(local)
		v.MultiSelect = make([]notion.SelectOption, 0, len(names))
		for _, name := range names {
			v.MultiSelect = append(v.MultiSelect, notion.SelectOption{Name: name})
		}

	case notion.TypeSelect:
		v.Select = optionToRemote(local)
	case notion.TypeStatus:
		v.Status = optionToRemote(local)

	case notion.TypeRichText:
		v.RichText = notion.TextSpans(Stringify(local))
	case notion.TypeTitle:
		v.Title = notion.TextSpans(Stringify(local))

	case notion.TypeUniqueID:
		v.UniqueID = uniqueIDToRemote(local)

	default:
		return notion.PropertyValue{}, false
	}

	return v, true
}

func optionToRemote(local any) *notion.SelectOption {
	name := Stringify(local)
	if name == "" {
		return nil
	}
	return &notion.SelectOption{Name: name}
}

func optionalString(local any) *string {
	s := Stringify(local)
	if s == "" {
		return nil
	}
	return &s
}

func dateToRemote(local any) *notion.DateValue {
	switch t := local.(type) {
	case map[string]any:
		start := Stringify(t["start"])
		if start == "" {
			return nil
		}
		d := &notion.DateValue{Start: start}
		if end := Stringify(t["end"]); end != "" {
			d.End = &end
		}
		return d
	default:
		s := Stringify(local)
		if s == "" {
			return nil
		}
		return &notion.DateValue{Start: s}
	}
}

// stringList lifts a scalar to a one element list. Empty or false yields none.
func stringList(local any) []string {
	switch t := local.(type) {
	case nil:
		return nil
	case bool:
		if !t {
			return nil
		}
		return []string{"true"}
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := Stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := Stringify(local); s != "" {
			return []string{s}
		}
		return nil
	}
}

// uniqueIDToRemote reads "PREFIX-12" or "12". A value without trailing digits has no number.
func uniqueIDToRemote(local any) *notion.UniqueID {
	u := &notion.UniqueID{}
	empty := ""
	u.Prefix = &empty

	switch t := local.(type) {
	case int:
		n := int64(t)
		u.Number = &n
		return u
	case float64:
		n := int64(t)
		u.Number = &n
		return u
	}

	s := strings.TrimSpace(Stringify(local))
	prefix, digits := s, ""
	if i := strings.LastIndex(s, "-"); i >= 0 {
		prefix, digits = s[:i], s[i+1:]
	} else if s != "" && unicode.IsDigit(rune(s[0])) {
		prefix, digits = "", s
	}
	u.Prefix = &prefix

	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	if end > 0 {
		if n, err := strconv.ParseInt(digits[:end], 10, 64); err == nil {
			u.Number = &n
		}
	}
	return u
}

// Stringify flattens a front matter value into inline text.
func Stringify(local any) string {
	switch t := local.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if start, ok := t["start"]; ok {
			if end := Stringify(t["end"]); end != "" {
				return Stringify(start) + " → " + end
			}
			return Stringify(start)
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
