// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind is the storage type of a dynamic field.
type ValueKind string

// Value kinds
const (
	KindText    ValueKind = "text"
	KindInteger ValueKind = "integer"
	KindFloat   ValueKind = "float"
	KindBoolean ValueKind = "boolean"
)

// Cardinality values of a field definition.
const (
	// CardinalityUnlimited marks a repeatable field without a nominal limit.
	CardinalityUnlimited = 0
	// CardinalitySingle marks a single-value field.
	CardinalitySingle = 1
)

// MultiValueCap is the number of delta inputs read for a repeatable field,
// regardless of its nominal cardinality.
const MultiValueCap = 10

// ParseValueKind maps a stored or user-supplied type name to a ValueKind.
// Legacy widget names are accepted as aliases.
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "textarea":
		return KindText, nil
	case "integer", "int", "number_integer":
		return KindInteger, nil
	case "float", "decimal", "number_decimal":
		return KindFloat, nil
	case "boolean", "bool", "checkbox":
		return KindBoolean, nil
	default:
		return "", fmt.Errorf("unknown value kind %q", s)
	}
}

// Value holds one typed field value. Only the member matching Kind is meaningful.
type Value struct {
	Kind  ValueKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
}

// Coerce converts raw form input into a Value of the given kind.
// The second result is false when the input must be dropped: numeric kinds
// drop unparsable input silently, booleans and text never drop.
func Coerce(kind ValueKind, raw string) (Value, bool) {
	switch kind {
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindInteger, Int: n}, true
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, false
		}
		return Value{Kind: KindFloat, Float: f}, true
	case KindBoolean:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return Value{Kind: KindBoolean, Int: 1}, true
		}
		return Value{Kind: KindBoolean, Int: 0}, true
	default:
		return Value{Kind: KindText, Text: raw}, true
	}
}

// Bool returns the boolean reading of a KindBoolean value.
func (v Value) Bool() bool {
	return v.Int != 0
}

// String formats the value for display or re-population of form inputs.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger, KindBoolean:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Text
	}
}

// FieldValue is one stored value of a field on a revision.
type FieldValue struct {
	ContentID  int64  `json:"content_id"`
	RevisionID int64  `json:"revision_id"`
	FieldName  string `json:"field_name"`
	Delta      int    `json:"delta"`
	Value      Value  `json:"value"`
}

// SingleInputKey returns the form key read for a single-value field.
func SingleInputKey(fieldName string) string {
	return "field_" + fieldName
}

// MultiInputKey returns the form key read for delta of a repeatable field.
func MultiInputKey(fieldName string, delta int) string {
	return "field_" + fieldName + "_" + strconv.Itoa(delta)
}

// Field is a field instance attached to a content type, joined with the
// definition that fixes its value kind and cardinality.
type Field struct {
	Name          string    `json:"name"`
	ContentType   string    `json:"content_type"`
	Label         string    `json:"label"`
	Description   string    `json:"description"`
	Required      bool      `json:"required"`
	DisplayWeight int       `json:"display_weight"`
	WidgetHint    string    `json:"widget_hint"`
	Kind          ValueKind `json:"kind"`
	Cardinality   int       `json:"cardinality"`
	Settings      string    `json:"settings,omitempty"`
}

// Multiple reports whether the field reads its input from numbered keys.
func (f Field) Multiple() bool {
	return f.Cardinality != CardinalitySingle
}

// InputKeys returns the input keys the field is read from, in delta order.
func (f Field) InputKeys() []string {
	if !f.Multiple() {
		return []string{SingleInputKey(f.Name)}
	}
	keys := make([]string, 0, MultiValueCap)
	for delta := 0; delta < MultiValueCap; delta++ {
		keys = append(keys, MultiInputKey(f.Name, delta))
	}
	return keys
}
