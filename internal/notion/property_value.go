package notion

// PropertyValue is one typed property of a page. Type names the single
// populated field; the others stay nil.
type PropertyValue struct {
	ID             string         `json:"id,omitempty"`
	Type           PropertyType   `json:"type"`
	Checkbox       *bool          `json:"checkbox,omitempty"`
	CreatedBy      *User          `json:"created_by,omitempty"`
	CreatedTime    string         `json:"created_time,omitempty"`
	Date           *DateValue     `json:"date,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Files          []FileObject   `json:"files,omitempty"`
	Formula        *Formula       `json:"formula,omitempty"`
	LastEditedBy   *User          `json:"last_edited_by,omitempty"`
	LastEditedTime string         `json:"last_edited_time,omitempty"`
	MultiSelect    []SelectOption `json:"multi_select,omitempty"`
	Number         *float64       `json:"number,omitempty"`
	People         []User         `json:"people,omitempty"`
	PhoneNumber    *string        `json:"phone_number,omitempty"`
	Relation       []Reference    `json:"relation,omitempty"`
	RichText       []RichText     `json:"rich_text,omitempty"`
	Rollup         *Rollup        `json:"rollup,omitempty"`
	Select         *SelectOption  `json:"select,omitempty"`
	Status         *SelectOption  `json:"status,omitempty"`
	Title          []RichText     `json:"title,omitempty"`
	UniqueID       *UniqueID      `json:"unique_id,omitempty"`
	URL            *string        `json:"url,omitempty"`
	Verification   *Verification  `json:"verification,omitempty"`
}

// MarshalJSON emits only the field selected by Type. A nil value is written
// as an explicit null, which Notion treats as "clear this property".
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if v.ID != "" {
		out["id"] = v.ID
	}
	if v.Type != "" {
		out["type"] = v.Type
		out[string(v.Type)] = v.payload()
	}
	return jsonMarshal(out)
}

func (v PropertyValue) payload() any {
	switch v.Type {
	case TypeCheckbox:
		return v.Checkbox
	case TypeCreatedBy:
		return v.CreatedBy
	case TypeCreatedTime:
		return v.CreatedTime
	case TypeDate:
		return v.Date
	case TypeEmail:
		return v.Email
	case TypeFiles:
		return nonNil(v.Files)
	case TypeFormula:
		return v.Formula
	case TypeLastEditedBy:
		return v.LastEditedBy
	case TypeLastEditedTime:
		return v.LastEditedTime
	case TypeMultiSelect:
		return nonNil(v.MultiSelect)
	case TypeNumber:
		return v.Number
	case TypePeople:
		return nonNil(v.People)
	case TypePhoneNumber:
		return v.PhoneNumber
	case TypeRelation:
		return nonNil(v.Relation)
	case TypeRichText:
		return nonNil(v.RichText)
	case TypeRollup:
		return v.Rollup
	case TypeSelect:
		return v.Select
	case TypeStatus:
		return v.Status
	case TypeTitle:
		return nonNil(v.Title)
	case TypeUniqueID:
		return v.UniqueID
	case TypeURL:
		return v.URL
	case TypeVerification:
		return v.Verification
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
