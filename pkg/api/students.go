package api

import (
	"context"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// identifier locations in the order they are tried
var idPaths = []string{"id", "_id.$oid", "_id"}

type rawStudent struct {
	Name   string `mapstructure:"name"`
	Age    int    `mapstructure:"age"`
	Course string `mapstructure:"course"`
}

// decodeStudents accepts a bare array or an object wrapping it under
// "students" or "data", and normalizes each record's identifier into ID.
// A malformed field leaves that field zero; the rest of the list is kept.
func decodeStudents(ctx context.Context, body []byte) ([]Student, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse.Msg("student list is not valid JSON")
	}
	list := gjson.ParseBytes(body)
	if list.IsObject() {
		for _, key := range []string{"students", "data"} {
			if v := list.Get(key); v.IsArray() {
				list = v
				break
			}
		}
	}
	if !list.IsArray() {
		return nil, ErrMalformedResponse.Msg("student list is not an array")
	}

	students := []Student{}
	for _, item := range list.Array() {
		if !item.IsObject() {
			log.Ctx(ctx).Warn().Str("item", item.Raw).Msg("skipping student list entry that is not an object")
			continue
		}
		students = append(students, decodeStudent(ctx, item))
	}
	return students, nil
}

var rawStudentFields = []string{"name", "age", "course"}

func decodeStudent(ctx context.Context, item gjson.Result) Student {
	id := studentID(item)
	m, _ := item.Value().(map[string]any)
	var raw rawStudent
	if err := weakDecode(m, &raw); err != nil {
		// keep every field that decodes on its own
		raw = rawStudent{}
		for _, f := range rawStudentFields {
			if ferr := weakDecode(map[string]any{f: m[f]}, &raw); ferr != nil {
				log.Ctx(ctx).Warn().Err(ferr).Str("id", id).Str("field", f).Msg("ignoring malformed student field")
			}
		}
	}
	return Student{
		ID:     id,
		Name:   raw.Name,
		Age:    raw.Age,
		Course: raw.Course,
	}
}

func weakDecode(in map[string]any, out *rawStudent) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// studentID returns the record identifier as a string, whichever field name
// and JSON type the backend used.
func studentID(item gjson.Result) string {
	for _, p := range idPaths {
		v := item.Get(p)
		switch v.Type {
		case gjson.String:
			if v.Str != "" {
				return v.Str
			}
		case gjson.Number:
			return v.Raw
		}
	}
	return ""
}
