// Package jsonutil decodes loosely typed JSON produced by generative models.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleStringValue converts a JSON scalar to a string. Models sometimes
// send numbers or booleans where a string belongs; those are rendered in
// their JSON form. null, objects and arrays yield "".
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b)
		}
		return ""
	case 'n', '{', '[':
		return ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// FlexibleString is a string field that accepts any JSON scalar.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler. It never fails, so one odd
// field cannot reject the enclosing object.
func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	*f = FlexibleString(FlexibleStringValue(data))
	return nil
}

// String returns the decoded value.
func (f FlexibleString) String() string {
	return string(f)
}
