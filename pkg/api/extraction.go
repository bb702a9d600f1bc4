package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindObject
	KindList
)

// Value is one extracted field value.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	Object []Field
	List   []Value
}

// Field is a key and its value, in the order the service returned them.
type Field struct {
	Key   string
	Value Value
}

// ExtractionResult holds whatever fields the OCR service returned.
type ExtractionResult struct {
	Fields []Field
}

// Get returns the value stored under key.
func (r ExtractionResult) Get(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of top-level fields.
func (r ExtractionResult) Len() int {
	return len(r.Fields)
}

// UnmarshalJSON accepts any JSON object.
func (r *ExtractionResult) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return ErrMalformedResponse.Msg("extraction result is not valid JSON")
	}
	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		return ErrMalformedResponse.Msg("extraction result is not an object")
	}
	r.Fields = objectFields(res)
	return nil
}

// MarshalJSON writes the fields as an object, preserving order.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	return Value{Kind: KindObject, Object: r.Fields}.MarshalJSON()
}

// AsMap converts the result into plain Go values.
func (r ExtractionResult) AsMap() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Key] = f.Value.Interface()
	}
	return m
}

func objectFields(res gjson.Result) []Field {
	fields := []Field{}
	res.ForEach(func(k, v gjson.Result) bool {
		fields = append(fields, Field{Key: k.String(), Value: parseValue(v)})
		return true
	})
	return fields
}

func parseValue(v gjson.Result) Value {
	switch {
	case v.IsObject():
		return Value{Kind: KindObject, Object: objectFields(v)}
	case v.IsArray():
		items := []Value{}
		for _, item := range v.Array() {
			items = append(items, parseValue(item))
		}
		return Value{Kind: KindList, List: items}
	}
	switch v.Type {
	case gjson.String:
		return Value{Kind: KindText, Text: v.Str}
	case gjson.Number:
		return Value{Kind: KindNumber, Number: v.Num, Text: v.Raw}
	case gjson.True, gjson.False:
		return Value{Kind: KindBool, Bool: v.Bool()}
	default:
		return Value{Kind: KindNull}
	}
}

// String renders the value for display. Objects and lists are shown as
// compact JSON.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindObject, KindList:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// Interface converts the value into plain Go values.
func (v Value) Interface() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	case KindObject:
		m := make(map[string]any, len(v.Object))
		for _, f := range v.Object {
			m[f.Key] = f.Value.Interface()
		}
		return m
	case KindList:
		l := make([]any, 0, len(v.List))
		for _, item := range v.List {
			l = append(l, item.Interface())
		}
		return l
	default:
		return nil
	}
}

// MarshalJSON writes the value, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.Object {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := f.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindNumber:
		if v.Text != "" {
			buf.WriteString(v.Text)
			return nil
		}
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
