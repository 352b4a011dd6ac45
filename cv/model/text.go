package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a nullable scalar. Unknown values stay invalid and encode as null.
type Text struct {
	Value string
	Valid bool
}

// String returns a valid Text for non-blank s and a null Text otherwise.
func String(s string) Text {
	s = strings.TrimSpace(s)
	return Text{Value: s, Valid: s != ""}
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// UnmarshalJSON accepts strings, numbers, booleans and null. Blank strings
// are treated as unknown.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = Text{}
		return nil
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = String(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*t = String(n.String())
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*t = String(fmt.Sprint(b))
	default:
		return fmt.Errorf("expected string, number or null, got %.20s", trimmed)
	}
	return nil
}

// StringList is a list of strings that also accepts null (empty) and a bare
// string (single item) on input. It always encodes as an array.
type StringList []string

// MarshalJSON implements json.Marshaler.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = StringList{}
		return nil
	}
	if trimmed[0] != '[' {
		var single Text
		if err := single.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		if single.Valid {
			*l = StringList{single.Value}
		} else {
			*l = StringList{}
		}
		return nil
	}
	var items []Text
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if item.Valid {
			out = append(out, item.Value)
		}
	}
	*l = out
	return nil
}
