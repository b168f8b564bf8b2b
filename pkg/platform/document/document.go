// Package document keeps the open-ended half of a stored document: fields a
// caller sends that the typed model does not name. Models split them off on
// decode and merge them back on encode so a document reads back as written.
package document

import (
	"encoding/json"
	"maps"
)

// Attributes holds caller-supplied fields outside a model's known set.
type Attributes map[string]json.RawMessage

// Split decodes a JSON object and returns every member whose key is not known.
// It returns nil when there are none.
func Split(data []byte, known ...string) (Attributes, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Attributes(all), nil
}

// Merge adds attrs to an encoded JSON object. Keys already present in base win,
// so attributes can never shadow a typed field.
func Merge(base []byte, attrs Attributes) ([]byte, error) {
	if len(attrs) == 0 {
		return base, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, v := range attrs {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

// Overlay replaces members of an encoded JSON object with attrs. It is the
// counterpart of Merge for values that must read back exactly as sent.
func Overlay(base []byte, attrs Attributes) ([]byte, error) {
	if len(attrs) == 0 {
		return base, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	maps.Copy(obj, attrs)
	return json.Marshal(obj)
}

// Encode encodes attrs for a JSONB column; nil encodes as an empty object.
func (a Attributes) Encode() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(a))
}

// Parse decodes a JSONB column value.
func Parse(raw []byte) (Attributes, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a map[string]json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return nil, nil
	}
	return Attributes(a), nil
}

// With returns a copy of a with patch applied on top.
func (a Attributes) With(patch Attributes) Attributes {
	out := make(Attributes, len(a)+len(patch))
	maps.Copy(out, a)
	maps.Copy(out, patch)
	return out
}
