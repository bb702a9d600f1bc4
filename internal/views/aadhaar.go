package views

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/smartapp/smartapp/pkg/api"
)

const (
	MsgSelectFile     = "Please select a file first."
	MsgExtractFailed  = "Failed to extract data. Please try again."
	MsgExtractSuccess = "Details extracted."
)

// Row is one rendered field of an extraction result.
type Row struct {
	Key   string
	Label string
	Value string
}

// Aadhaar is the identity-card extraction page.
type Aadhaar struct {
	FormState
	backend  Backend
	fileName string
	data     []byte
	result   *api.ExtractionResult
}

// NewAadhaar creates the extraction page.
func NewAadhaar(backend Backend) *Aadhaar {
	return &Aadhaar{backend: backend}
}

// SelectFile sets the file to upload and clears any previous result or error.
func (v *Aadhaar) SelectFile(name string, data []byte) {
	v.fileName = name
	v.data = data
	v.result = nil
	v.Reset()
}

// FileName returns the selected file's name.
func (v *Aadhaar) FileName() string { return v.fileName }

// Result returns the last extraction result, or nil.
func (v *Aadhaar) Result() *api.ExtractionResult { return v.result }

// Extract uploads the selected file.
func (v *Aadhaar) Extract(ctx context.Context) (Outcome, error) {
	if len(v.data) == 0 {
		return Outcome{Message: v.reject(MsgSelectFile)}, nil
	}
	if !v.Begin() {
		return Outcome{}, ErrBusy
	}
	res, err := v.backend.ExtractAadhaar(ctx, v.fileName, v.data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("file", v.fileName).Msg("aadhaar extraction failed")
		return Outcome{Message: v.fail(MsgExtractFailed)}, nil
	}
	v.result = res
	return Outcome{Message: v.succeed(MsgExtractSuccess)}, nil
}

// Rows renders the result generically, in the order the service returned it.
func (v *Aadhaar) Rows() []Row {
	if v.result == nil {
		return nil
	}
	rows := make([]Row, 0, v.result.Len())
	for _, f := range v.result.Fields {
		rows = append(rows, Row{Key: f.Key, Label: HumanizeKey(f.Key), Value: f.Value.String()})
	}
	return rows
}

// HumanizeKey turns a key such as "father_name" into "Father Name".
func HumanizeKey(key string) string {
	// a Caser is stateful, so one per call
	return cases.Title(language.English).String(strings.TrimSpace(strings.ReplaceAll(key, "_", " ")))
}
