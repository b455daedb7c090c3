// Package plan defines patch plans: which descriptor to edit, which
// registered file anchors the insertions, and which files to register.
package plan

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Plan describes one patching run.
type Plan struct {
	// Project is the path of the project descriptor (project.pbxproj).
	Project string `yaml:"project" json:"project"`

	// Anchor names a source file already registered in all four section
	// categories. New entry lines are inserted after its lines.
	Anchor string `yaml:"anchor" json:"anchor"`

	// Phase is the compile phase display name, e.g. "Sources".
	Phase string `yaml:"phase" json:"phase"`

	// Files lists the source files to register, in insertion order.
	Files []string `yaml:"files" json:"files"`

	// Journal optionally points at a SQLite run journal.
	Journal string `yaml:"journal,omitempty" json:"journal,omitempty"`
}

// Load reads and validates a plan file. Errors are collected rather than
// fail-fast so a plan author sees everything at once; the returned plan
// is non-nil only when the slice is empty.
func Load(path string) (*Plan, []ValidationError) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []ValidationError{{
				Field:   "plan",
				Message: fmt.Sprintf("plan file not found: %s", path),
				Code:    ErrCodeNotFound,
			}}
		}
		return nil, []ValidationError{{
			Field:   "plan",
			Message: fmt.Sprintf("reading plan file: %v", err),
			Code:    ErrCodeNotFound,
		}}
	}

	// Strict decode catches typos like "file:" vs "files:".
	var p Plan
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, []ValidationError{{
			Field:   "plan",
			Message: fmt.Sprintf("parsing YAML: %v", err),
			Code:    ErrCodeParse,
		}}
	}

	// Schema violations come with field paths and line numbers, so stop
	// there before piling semantic errors on top of them.
	if errs := schemaErrors(path, data); len(errs) > 0 {
		return nil, errs
	}
	if errs := p.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &p, nil
}

// Validate runs the semantic checks the schema cannot express. It is the
// only validation applied to plans constructed in Go rather than loaded
// from a file.
func (p *Plan) Validate() []ValidationError {
	var errs []ValidationError

	if p.Project == "" {
		errs = append(errs, ValidationError{
			Field: "project", Message: "project path is required", Code: ErrCodeInvalid,
		})
	}
	if p.Anchor == "" {
		errs = append(errs, ValidationError{
			Field: "anchor", Message: "anchor file is required", Code: ErrCodeInvalid,
		})
	}
	if p.Phase == "" {
		errs = append(errs, ValidationError{
			Field: "phase", Message: "phase name is required", Code: ErrCodeInvalid,
		})
	}
	if len(p.Files) == 0 {
		errs = append(errs, ValidationError{
			Field: "files", Message: "at least one file is required", Code: ErrCodeInvalid,
		})
	}

	// Compare NFC forms: a decomposed and a composed spelling of the same
	// name would collide in the descriptor.
	anchor := norm.NFC.String(p.Anchor)
	seen := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		name := norm.NFC.String(f)
		if name == anchor && anchor != "" {
			errs = append(errs, ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("%s is the anchor; a file cannot anchor its own insertion", f),
				Code:    ErrCodeInvalid,
			})
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("duplicate file: %s", f),
				Code:    ErrCodeInvalid,
			})
		}
		seen[name] = true
	}

	return errs
}
