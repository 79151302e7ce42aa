// Package firestore is a thin typed client for the Firestore REST document
// protocol: get a collection, patch a document with a field mask, create a
// document. It performs no business logic; reconciliation lives in services.
package firestore

import (
	"path"
	"strconv"
	"time"
)

// Value is a Firestore typed value. Exactly one field is set; the wire
// representation is a single-key JSON object selecting the type, e.g.
// {"stringValue":"En cours"} or {"integerValue":"2"}.
//
// Note that Firestore encodes integerValue as a decimal string on the wire.
type Value struct {
	StringValue    *string    `json:"stringValue,omitempty"`
	IntegerValue   *string    `json:"integerValue,omitempty"`
	DoubleValue    *float64   `json:"doubleValue,omitempty"`
	BooleanValue   *bool      `json:"booleanValue,omitempty"`
	TimestampValue *time.Time `json:"timestampValue,omitempty"`
}

func String(s string) Value { return Value{StringValue: &s} }

func Integer(i int64) Value {
	s := strconv.FormatInt(i, 10)
	return Value{IntegerValue: &s}
}

func Double(f float64) Value { return Value{DoubleValue: &f} }

func Boolean(b bool) Value { return Value{BooleanValue: &b} }

func Timestamp(t time.Time) Value { return Value{TimestampValue: &t} }

// IsZero reports whether no typed field is set (absent or empty field).
func (v Value) IsZero() bool {
	return v.StringValue == nil && v.IntegerValue == nil && v.DoubleValue == nil &&
		v.BooleanValue == nil && v.TimestampValue == nil
}

// AsString returns the scalar rendered as a string, or "" when unset.
// Non-string scalars are formatted, matching the permissive extraction the
// mobile client relies on.
func (v Value) AsString() string {
	switch {
	case v.StringValue != nil:
		return *v.StringValue
	case v.IntegerValue != nil:
		return *v.IntegerValue
	case v.DoubleValue != nil:
		return strconv.FormatFloat(*v.DoubleValue, 'f', -1, 64)
	case v.BooleanValue != nil:
		return strconv.FormatBool(*v.BooleanValue)
	case v.TimestampValue != nil:
		return v.TimestampValue.Format(time.RFC3339)
	}
	return ""
}

// AsFloat64 returns the numeric scalar, parsing string-encoded numbers.
// Unset or non-numeric values yield 0.
func (v Value) AsFloat64() float64 {
	switch {
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.IntegerValue != nil:
		f, _ := strconv.ParseFloat(*v.IntegerValue, 64)
		return f
	case v.StringValue != nil:
		f, _ := strconv.ParseFloat(*v.StringValue, 64)
		return f
	}
	return 0
}

// AsTime returns the timestamp scalar, also accepting RFC3339 strings.
// The second return value reports whether a usable time was present.
func (v Value) AsTime() (time.Time, bool) {
	if v.TimestampValue != nil {
		return *v.TimestampValue, true
	}
	if v.StringValue != nil {
		if t, err := time.Parse(time.RFC3339, *v.StringValue); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Document is one Firestore document: a resource name ending in
// .../{collectionId}/{documentId} plus its typed fields.
type Document struct {
	Name   string           `json:"name"`
	Fields map[string]Value `json:"fields"`
}

// ID returns the trailing document id of the resource name.
func (d Document) ID() string {
	return path.Base(d.Name)
}

// Field returns the named field, or a zero Value when absent.
func (d Document) Field(name string) Value {
	return d.Fields[name]
}
