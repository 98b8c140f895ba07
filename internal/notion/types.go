package notion

import (
	"strings"
	"time"
)

type PropertyType string

const (
	TypeCheckbox       PropertyType = "checkbox"
	TypeCreatedBy      PropertyType = "created_by"
	TypeCreatedTime    PropertyType = "created_time"
	TypeDate           PropertyType = "date"
	TypeEmail          PropertyType = "email"
	TypeFiles          PropertyType = "files"
	TypeFormula        PropertyType = "formula"
	TypeLastEditedBy   PropertyType = "last_edited_by"
	TypeLastEditedTime PropertyType = "last_edited_time"
	TypeMultiSelect    PropertyType = "multi_select"
	TypeNumber         PropertyType = "number"
	TypePeople         PropertyType = "people"
	TypePhoneNumber    PropertyType = "phone_number"
	TypeRelation       PropertyType = "relation"
	TypeRichText       PropertyType = "rich_text"
	TypeRollup         PropertyType = "rollup"
	TypeSelect         PropertyType = "select"
	TypeStatus         PropertyType = "status"
	TypeTitle          PropertyType = "title"
	TypeUniqueID       PropertyType = "unique_id"
	TypeURL            PropertyType = "url"
	TypeVerification   PropertyType = "verification"
)

// Nested result kinds of formula and rollup values
const (
	ResultArray   = "array"
	ResultBoolean = "boolean"
	ResultDate    = "date"
	ResultNumber  = "number"
	ResultString  = "string"
)

type User struct {
	Object    string `json:"object,omitempty"`
	ID        string `json:"id"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type RichText struct {
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
	Href      string       `json:"href,omitempty"`
}

// PlainText concatenates span text, dropping all styling.
func PlainText(spans []RichText) string {
	var sb strings.Builder
	for _, span := range spans {
		switch {
		case span.PlainText != "":
			sb.WriteString(span.PlainText)
		case span.Text != nil:
			sb.WriteString(span.Text.Content)
		}
	}
	return sb.String()
}

// TextSpans builds the single unstyled span used for outgoing text.
func TextSpans(s string) []RichText {
	return []RichText{{Type: "text", Text: &TextContent{Content: s}}}
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type FileObject struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type Reference struct {
	ID string `json:"id"`
}

type UniqueID struct {
	Prefix *string `json:"prefix"`
	Number *int64  `json:"number"`
}

type Verification struct {
	State string     `json:"state"`
	Date  *DateValue `json:"date,omitempty"`
}

type Formula struct {
	Type    string     `json:"type"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	String  *string    `json:"string,omitempty"`
}

type Rollup struct {
	Type     string          `json:"type"`
	Array    []PropertyValue `json:"array,omitempty"`
	Date     *DateValue      `json:"date,omitempty"`
	Number   *float64        `json:"number,omitempty"`
	Function string          `json:"function,omitempty"`
}

type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// Page is a database record.
type Page struct {
	Object         string                   `json:"object"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	Archived       bool                     `json:"archived"`
	URL            string                   `json:"url,omitempty"`
	Parent         Parent                   `json:"parent"`
	Properties     map[string]PropertyValue `json:"properties"`
}

// TitleProperty returns the name and value of the record's title property.
func (p *Page) TitleProperty() (string, PropertyValue, error) {
	for key, prop := range p.Properties {
		if prop.Type == TypeTitle {
			return key, prop, nil
		}
	}
	return "", PropertyValue{}, ErrNoTitle
}

func (p *Page) Title() (string, error) {
	_, prop, err := p.TitleProperty()
	if err != nil {
		return "", err
	}
	return PlainText(prop.Title), nil
}

type PropertySchema struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
}

// Database is a collection of pages sharing one property schema.
type Database struct {
	Object         string                    `json:"object"`
	ID             string                    `json:"id"`
	Title          []RichText                `json:"title"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	URL            string                    `json:"url,omitempty"`
	Properties     map[string]PropertySchema `json:"properties"`
}

func (d *Database) Name() string {
	return PlainText(d.Title)
}

func (d *Database) TitleKey() (string, error) {
	for key, schema := range d.Properties {
		if schema.Type == TypeTitle {
			return key, nil
		}
	}
	return "", ErrNoTitle
}

type listResponse[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type Sort struct {
	Timestamp string `json:"timestamp,omitempty"`
	Property  string `json:"property,omitempty"`
	Direction string `json:"direction"`
}

type TimestampCondition struct {
	After      string `json:"after,omitempty"`
	OnOrAfter  string `json:"on_or_after,omitempty"`
	Before     string `json:"before,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
}

type Filter struct {
	Timestamp      string              `json:"timestamp,omitempty"`
	LastEditedTime *TimestampCondition `json:"last_edited_time,omitempty"`
}

// EditedSince matches pages edited at or after t. Creation always counts as
// an edit, so new pages are included.
func EditedSince(t time.Time) *Filter {
	return &Filter{
		Timestamp:      string(TypeLastEditedTime),
		LastEditedTime: &TimestampCondition{OnOrAfter: t.UTC().Format(time.RFC3339)},
	}
}

type queryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type searchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *searchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

type updatePageRequest struct {
	Properties map[string]PropertyValue `json:"properties"`
}

type createPageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}
