package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/smartapp/smartapp/internal/views"
)

// ParseMultiYAML parses a file holding one or more YAML documents.
func ParseMultiYAML(filename string) ([]map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseMultiYAMLFromBytes(data)
}

// ParseMultiYAMLFromBytes parses one or more YAML documents. Empty documents
// are skipped. A document that is a list contributes each of its items, so a
// JSON array of records also parses.
func ParseMultiYAMLFromBytes(data []byte) ([]map[string]any, error) {
	data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	content := strings.TrimSpace(string(data))
	if len(content) == 0 || strings.Trim(content, "- \n\t") == "" {
		return []map[string]any{}, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	result := []map[string]any{}

	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
		switch d := doc.(type) {
		case map[string]any:
			if len(d) > 0 {
				result = append(result, d)
			}
		case []any:
			for i, item := range d {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("item %d is not a mapping", i)
				}
				result = append(result, m)
			}
		case nil:
		default:
			return nil, fmt.Errorf("unexpected document of type %T", doc)
		}
	}

	return result, nil
}

// studentDoc is a student record as written in an import file.
type studentDoc struct {
	Name   string `mapstructure:"name"`
	Age    string `mapstructure:"age"`
	Course string `mapstructure:"course"`
}

// LoadStudentsFile reads student records from a YAML or JSON file.
func LoadStudentsFile(filename string) ([]views.StudentValues, error) {
	docs, err := ParseMultiYAML(filename)
	if err != nil {
		return nil, err
	}
	return studentValuesFromDocs(docs)
}

func studentValuesFromDocs(docs []map[string]any) ([]views.StudentValues, error) {
	out := make([]views.StudentValues, 0, len(docs))
	for i, doc := range docs {
		var sd studentDoc
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &sd,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, views.StudentValues{Name: sd.Name, Age: sd.Age, Course: sd.Course})
	}
	return out, nil
}
