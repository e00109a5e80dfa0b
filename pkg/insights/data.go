package insights

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DataType tags a report data field and fixes the JSON shape of its value.
type DataType string

const (
	DataBoolean    DataType = "BOOLEAN"
	DataDate       DataType = "DATE"
	DataDuration   DataType = "DURATION"
	DataLink       DataType = "LINK"
	DataNumber     DataType = "NUMBER"
	DataPercentage DataType = "PERCENTAGE"
	DataText       DataType = "TEXT"
)

func (t DataType) valid() bool {
	switch t {
	case DataBoolean, DataDate, DataDuration, DataLink, DataNumber, DataPercentage, DataText:
		return true
	}
	return false
}

// UnmarshalJSON rejects any token that is not one of the defined data types.
func (t *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &SchemaError{Field: "type", Reason: "must be a string token"}
	}
	if !DataType(s).valid() {
		return &SchemaError{Field: "type", Reason: fmt.Sprintf("unrecognized data field type %q", s)}
	}
	*t = DataType(s)
	return nil
}

// LinkValue is the value of a LINK data field: the text to display and the
// URL it points at.
type LinkValue struct {
	LinkText string `json:"linktext"`
	Href     string `json:"href"`
}

// DataField is one typed key/value entry shown on a report, such as a
// coverage percentage or a count of findings. Bitbucket renders the value
// according to the field's type tag.
//
// Value holds the normalized Go representation for the field's type:
// bool for BOOLEAN, int64 epoch milliseconds for DATE, int64 milliseconds
// for DURATION, LinkValue for LINK, float64 for NUMBER and PERCENTAGE, and
// string for TEXT. The constructors produce these shapes; hand-assembled
// fields are checked when a report is built.
type DataField struct {
	Title string   `json:"title"`
	Type  DataType `json:"type"`
	Value any      `json:"value"`
}

// BooleanData builds a BOOLEAN data field.
func BooleanData(title string, value bool) (DataField, error) {
	return newDataField(title, DataBoolean, value)
}

// DateData builds a DATE data field. The instant is carried on the wire as
// milliseconds since the Unix epoch; instants before the epoch are rejected.
func DateData(title string, value time.Time) (DataField, error) {
	millis := value.UnixMilli()
	if millis < 0 {
		return DataField{}, &ValidationError{Field: "value", Reason: "date precedes the Unix epoch"}
	}
	return newDataField(title, DataDate, millis)
}

// DurationData builds a DURATION data field, carried as milliseconds.
func DurationData(title string, value time.Duration) (DataField, error) {
	if value < 0 {
		return DataField{}, &ValidationError{Field: "value", Reason: "duration must not be negative"}
	}
	return newDataField(title, DataDuration, value.Milliseconds())
}

// LinkData builds a LINK data field from its display text and target URL.
func LinkData(title, text, href string) (DataField, error) {
	if text == "" {
		return DataField{}, &ValidationError{Field: "value", Reason: "link text must not be empty"}
	}
	if href == "" {
		return DataField{}, &ValidationError{Field: "value", Reason: "link href must not be empty"}
	}
	return newDataField(title, DataLink, LinkValue{LinkText: text, Href: href})
}

// NumberData builds a NUMBER data field. NaN and infinities are rejected
// because JSON cannot carry them.
func NumberData(title string, value float64) (DataField, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return DataField{}, &ValidationError{Field: "value", Reason: "number must be finite"}
	}
	return newDataField(title, DataNumber, value)
}

// PercentageData builds a PERCENTAGE data field. The value must lie within
// 0 to 100 inclusive; out-of-range values are rejected here rather than at
// serialization time.
func PercentageData(title string, value float64) (DataField, error) {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return DataField{}, &ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("percentage %v is outside the range 0 to 100", value),
		}
	}
	return newDataField(title, DataPercentage, value)
}

// TextData builds a TEXT data field.
func TextData(title, value string) (DataField, error) {
	return newDataField(title, DataText, value)
}

func newDataField(title string, t DataType, value any) (DataField, error) {
	if title == "" {
		return DataField{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return DataField{Title: title, Type: t, Value: value}, nil
}

// Validate checks that the field carries a title, a known type tag, and a
// value whose Go type matches the tag. The constructors always satisfy it.
func (d DataField) Validate() error {
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	switch d.Type {
	case DataBoolean:
		if _, ok := d.Value.(bool); !ok {
			return &ValidationError{Field: "value", Reason: "BOOLEAN data field value must be a bool"}
		}
	case DataDate, DataDuration:
		v, ok := d.Value.(int64)
		if !ok || v < 0 {
			return &ValidationError{
				Field:  "value",
				Reason: fmt.Sprintf("%s data field value must be a non-negative int64 of milliseconds", d.Type),
			}
		}
	case DataLink:
		v, ok := d.Value.(LinkValue)
		if !ok || v.LinkText == "" || v.Href == "" {
			return &ValidationError{Field: "value", Reason: "LINK data field value must be a LinkValue with linktext and href"}
		}
	case DataNumber:
		v, ok := d.Value.(float64)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "value", Reason: "NUMBER data field value must be a finite float64"}
		}
	case DataPercentage:
		v, ok := d.Value.(float64)
		if !ok || math.IsNaN(v) || v < 0 || v > 100 {
			return &ValidationError{Field: "value", Reason: "PERCENTAGE data field value must be a float64 between 0 and 100"}
		}
	case DataText:
		if _, ok := d.Value.(string); !ok {
			return &ValidationError{Field: "value", Reason: "TEXT data field value must be a string"}
		}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unrecognized data field type %q", d.Type)}
	}
	return nil
}

// UnmarshalJSON decodes a data field and verifies that the value matches the
// declared type tag, so a decoded field is as trustworthy as a constructed
// one. Unknown keys are ignored; a missing key or a mismatched value fails
// with a SchemaError.
func (d *DataField) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title *string         `json:"title"`
		Type  *DataType       `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return asSchemaError(err)
	}
	if raw.Title == nil {
		return missingKeyError("title")
	}
	if *raw.Title == "" {
		return &SchemaError{Field: "title", Reason: "must not be empty"}
	}
	if raw.Type == nil {
		return missingKeyError("type")
	}
	if raw.Value == nil {
		return missingKeyError("value")
	}
	if string(raw.Value) == "null" {
		return &SchemaError{Field: "value", Reason: "must not be null"}
	}
	value, err := decodeDataValue(*raw.Type, raw.Value)
	if err != nil {
		return err
	}
	d.Title = *raw.Title
	d.Type = *raw.Type
	d.Value = value
	return nil
}

func decodeDataValue(t DataType, raw json.RawMessage) (any, error) {
	switch t {
	case DataBoolean:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &SchemaError{Field: "value", Reason: "BOOLEAN data field requires a boolean value"}
		}
		return v, nil
	case DataDate, DataDuration:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil || v < 0 {
			return nil, &SchemaError{
				Field:  "value",
				Reason: fmt.Sprintf("%s data field requires a non-negative integer of milliseconds", t),
			}
		}
		return v, nil
	case DataLink:
		var v LinkValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &SchemaError{Field: "value", Reason: "LINK data field requires an object with linktext and href"}
		}
		if v.LinkText == "" || v.Href == "" {
			return nil, &SchemaError{Field: "value", Reason: "LINK data field requires non-empty linktext and href"}
		}
		return v, nil
	case DataNumber:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &SchemaError{Field: "value", Reason: "NUMBER data field requires a numeric value"}
		}
		return v, nil
	case DataPercentage:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil || v < 0 || v > 100 {
			return nil, &SchemaError{Field: "value", Reason: "PERCENTAGE data field requires a number between 0 and 100"}
		}
		return v, nil
	case DataText:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &SchemaError{Field: "value", Reason: "TEXT data field requires a string value"}
		}
		return v, nil
	}
	return nil, &SchemaError{Field: "type", Reason: fmt.Sprintf("unrecognized data field type %q", t)}
}
