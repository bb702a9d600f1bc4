package api

import (
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/smartapp/smartapp/internal/common/apperrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Credentials are sent to /login and /register.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	return validationError(validatorInstance().Struct(c))
}

// LoginResponse is returned by /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Student is a student record with its identifier in canonical form.
type Student struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`
}

// Input returns the writable fields of s.
func (s Student) Input() StudentInput {
	return StudentInput{Name: s.Name, Age: s.Age, Course: s.Course}
}

// StudentInput is the body of add and update calls.
type StudentInput struct {
	Name   string `json:"name" validate:"required"`
	Age    int    `json:"age" validate:"required"`
	Course string `json:"course" validate:"required"`
}

// Validate checks that every field is present.
func (in StudentInput) Validate() error {
	return validationError(validatorInstance().Struct(in))
}

// ParseStudentInput builds a StudentInput from raw form values. Surrounding
// whitespace is ignored. A missing age is left zero for Validate to report;
// an age that is present but not a number is an error.
func ParseStudentInput(name, age, course string) (StudentInput, error) {
	in := StudentInput{
		Name:   strings.TrimSpace(name),
		Course: strings.TrimSpace(course),
	}
	age = strings.TrimSpace(age)
	if age != "" {
		n, err := strconv.Atoi(age)
		if err != nil || n <= 0 {
			return in, ErrInvalidInput.New("age must be a positive number")
		}
		in.Age = n
	}
	return in, nil
}

// FindStudent returns the student whose identifier equals id, comparing as
// strings.
func FindStudent(students []Student, id string) (Student, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Student{}, false
	}
	for _, s := range students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// RemoveStudent returns students without the record identified by id.
func RemoveStudent(students []Student, id string) []Student {
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrInvalidInput.MsgErr(err.Error(), err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return &FieldErrors{
		Fields: fields,
		err:    ErrInvalidInput.Msg("missing required fields: " + strings.Join(fields, ", ")),
	}
}

// FieldErrors lists the fields that failed presence validation.
type FieldErrors struct {
	Fields []string
	err    apperrors.Error
}

func (e *FieldErrors) Error() string { return e.err.Error() }

func (e *FieldErrors) Unwrap() error { return e.err }
