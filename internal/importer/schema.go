package importer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Bundle is the top-level JSON structure for a project import.
type Bundle struct {
	Project ProjectImport `json:"project"`
	Owner   string        `json:"owner"`
	Users   []UserImport  `json:"users,omitempty"`
	Members []string      `json:"members,omitempty"`
	Tasks   []TaskImport  `json:"tasks"`
}

// ProjectImport defines the project-level fields in the bundle.
type ProjectImport struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UserImport registers a user as part of the import. Users that already
// exist (by email) are reused.
type UserImport struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TaskImport defines a task in the bundle. Assignee and Creator are emails;
// DependsOn lists refs of other tasks in the same bundle.
type TaskImport struct {
	Ref            string   `json:"ref"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	Status         string   `json:"status,omitempty"`
	Creator        string   `json:"creator,omitempty"`
	Assignee       string   `json:"assignee,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	ActualHours    *float64 `json:"actual_hours,omitempty"`
	DependsOn      []string `json:"depends_on,omitempty"`
}

//go:embed bundle.schema.json
var bundleSchemaJSON []byte

// LoadBundle reads, schema-checks and parses a bundle file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBundle(data)
}

// ParseBundle checks data against the bundle JSON Schema and decodes it.
// Schema failures are returned as a *ValidationError.
func ParseBundle(data []byte) (*Bundle, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	if errs := validateAgainstSchema(doc); len(errs) > 0 {
		return nil, &ValidationError{Problems: errs}
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding import file: %w", err)
	}
	return &b, nil
}
