package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStudentsNormalizesIdentifiers(t *testing.T) {
	body := []byte(`[
		{"id": 7, "name": "A", "age": 20, "course": "BSc"},
		{"_id": "65a1f0", "name": "B", "age": "21", "course": "MSc"},
		{"_id": {"$oid": "65a1f1"}, "name": "C", "age": 22.0, "course": "MBA"},
		{"name": "D", "age": null, "course": "BA"},
		"garbage"
	]`)
	students, err := decodeStudents(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, students, 4)
	assert.Equal(t, Student{ID: "7", Name: "A", Age: 20, Course: "BSc"}, students[0])
	assert.Equal(t, Student{ID: "65a1f0", Name: "B", Age: 21, Course: "MSc"}, students[1])
	assert.Equal(t, "65a1f1", students[2].ID)
	assert.Equal(t, 22, students[2].Age)
	assert.Equal(t, "", students[3].ID)
}

func TestDecodeStudentsKeepsRecordsWithBadFields(t *testing.T) {
	body := []byte(`[
		{"id": 1, "name": "A", "age": "twenty", "course": "BSc"},
		{"id": 2, "name": ["x"], "age": 21, "course": "MSc"},
		{"id": 3, "name": "C", "age": 22, "course": "MBA"}
	]`)
	students, err := decodeStudents(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, Student{ID: "1", Name: "A", Age: 0, Course: "BSc"}, students[0])
	assert.Equal(t, Student{ID: "2", Name: "", Age: 21, Course: "MSc"}, students[1])
	assert.Equal(t, Student{ID: "3", Name: "C", Age: 22, Course: "MBA"}, students[2])
}

func TestDecodeStudentsWrappedAndEmpty(t *testing.T) {
	students, err := decodeStudents(context.Background(), []byte(`{"students":[{"_id":"x","name":"A","age":1,"course":"c"}]}`))
	require.NoError(t, err)
	assert.Len(t, students, 1)

	students, err = decodeStudents(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)

	_, err = decodeStudents(context.Background(), []byte(`{"detail":"nope"}`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
	_, err = decodeStudents(context.Background(), []byte(`<html>`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFindAndRemoveStudent(t *testing.T) {
	list := []Student{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}, {ID: "3", Name: "C"}}

	s, ok := FindStudent(list, " 2 ")
	require.True(t, ok)
	assert.Equal(t, "B", s.Name)
	_, ok = FindStudent(list, "")
	assert.False(t, ok)
	_, ok = FindStudent(list, "9")
	assert.False(t, ok)

	rest := RemoveStudent(list, "2")
	assert.Equal(t, []Student{{ID: "1", Name: "A"}, {ID: "3", Name: "C"}}, rest)
	assert.Len(t, list, 3)
}

func TestStudentInputValidation(t *testing.T) {
	in, err := ParseStudentInput(" Asha ", "20", "B.Tech")
	require.NoError(t, err)
	assert.NoError(t, in.Validate())
	assert.Equal(t, "Asha", in.Name)

	tests := []struct {
		name, age, course string
		missing           []string
	}{
		{"", "20", "B.Tech", []string{"name"}},
		{"Asha", "", "B.Tech", []string{"age"}},
		{"Asha", "20", "  ", []string{"course"}},
		{"", "", "", []string{"name", "age", "course"}},
	}
	for _, tt := range tests {
		in, err := ParseStudentInput(tt.name, tt.age, tt.course)
		require.NoError(t, err)
		err = in.Validate()
		var fe *FieldErrors
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, tt.missing, fe.Fields)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err = ParseStudentInput("Asha", "twenty", "B.Tech")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCredentialsValidation(t *testing.T) {
	assert.NoError(t, Credentials{Email: "a@b.c", Password: "p"}.Validate())
	assert.Error(t, Credentials{Email: "a@b.c"}.Validate())
}

func TestExtractionResultRoundTrip(t *testing.T) {
	in := `{"z":"last?","a":[1,"two",true,null],"n":{"k":1.5}}`
	var res ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(in), &res))
	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
	assert.Equal(t, []string{"z", "a", "n"}, []string{res.Fields[0].Key, res.Fields[1].Key, res.Fields[2].Key})
	assert.Equal(t, map[string]any{"k": 1.5}, res.AsMap()["n"])

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &res))
}
