// pkg/validationfile/validationfile.go
//
// Package validationfile reads the validation-results document the
// decision stage consumes. The file carries one summary per
// application; absent keys default to zero values.
package validationfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/models"
)

const resultSchema = `{
  "type": "object",
  "required": ["application_id"],
  "properties": {
    "application_id": {"type": "string", "minLength": 1},
    "validation_status": {"type": "string"},
    "quality_score": {"type": "number", "minimum": 0, "maximum": 1},
    "consistency_score": {"type": "number", "minimum": 0, "maximum": 1},
    "completeness_score": {"type": "number", "minimum": 0, "maximum": 1},
    "category_scores": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    },
    "findings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "severity", "message"],
        "properties": {
          "category": {"type": "string"},
          "severity": {"type": "string", "enum": ["info", "low", "medium", "high", "critical"]},
          "message": {"type": "string"},
          "weight": {"type": "number"}
        }
      }
    },
    "documents_reviewed": {"type": "integer", "minimum": 0}
  }
}`

var documentSchema = fmt.Sprintf(`{
  "anyOf": [
    {"type": "array", "items": %[1]s},
    {
      "type": "object",
      "required": ["applications"],
      "properties": {"applications": {"type": "array", "items": %[1]s}}
    },
    {
      "type": "object",
      "required": ["validation_results"],
      "properties": {"validation_results": {"type": "array", "items": %[1]s}}
    }
  ]
}`, resultSchema)

// File is an indexed set of validation results.
type File struct {
	results map[string]*models.ValidationResult
	order   []string
}

// Load reads, validates, and indexes a validation-results document.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read validation file: %w", err)
	}
	return Parse(raw)
}

// Parse accepts a bare array of results or an object wrapping the
// array under "applications" or "validation_results".
func Parse(raw []byte) (*File, error) {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	checked, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, commonerrors.NewValidationFileInvalidError(err.Error())
	}
	if !checked.Valid() {
		return nil, commonerrors.NewValidationFileInvalidError(firstSchemaError(checked))
	}

	var summaries []models.ValidationSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		var wrapper struct {
			Applications      []models.ValidationSummary `json:"applications"`
			ValidationResults []models.ValidationSummary `json:"validation_results"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("parse validation file: %w", err)
		}
		summaries = wrapper.Applications
		if summaries == nil {
			summaries = wrapper.ValidationResults
		}
	}

	file := &File{results: make(map[string]*models.ValidationResult, len(summaries))}
	for _, summary := range summaries {
		if _, seen := file.results[summary.ApplicationID]; !seen {
			file.order = append(file.order, summary.ApplicationID)
		}
		file.results[summary.ApplicationID] = summary.Result()
	}
	return file, nil
}

func firstSchemaError(result *gojsonschema.Result) string {
	for _, desc := range result.Errors() {
		return desc.String()
	}
	return "schema validation failed"
}

// Lookup returns the result for an application id, if present.
func (f *File) Lookup(applicationID string) (*models.ValidationResult, bool) {
	result, ok := f.results[applicationID]
	return result, ok
}

// ApplicationIDs lists the ids in file order, duplicates collapsed.
func (f *File) ApplicationIDs() []string {
	ids := make([]string, len(f.order))
	copy(ids, f.order)
	return ids
}

// Len returns the number of distinct applications in the file.
func (f *File) Len() int {
	return len(f.results)
}
