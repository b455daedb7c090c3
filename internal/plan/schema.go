package plan

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// schemaErrors checks the raw plan document against the embedded CUE
// schema. CUE reports constraint violations with field paths and source
// positions, which the YAML decoder cannot do.
func schemaErrors(path string, data []byte) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("compiling plan schema: %v", err),
			Code:    ErrCodeGeneric,
		}}
	}
	def := schema.LookupPath(cue.ParsePath("#Plan"))
	if err := def.Err(); err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("looking up #Plan: %v", err),
			Code:    ErrCodeGeneric,
		}}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return []ValidationError{{
			Field:   "plan",
			Message: fmt.Sprintf("parsing YAML: %v", err),
			Code:    ErrCodeParse,
		}}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return []ValidationError{{
			Field:   "plan",
			Message: fmt.Sprintf("building plan document: %v", err),
			Code:    ErrCodeParse,
		}}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fromCUE(err)
	}
	return nil
}

// fromCUE converts a CUE validation error, which may aggregate several
// problems, into one ValidationError per problem.
func fromCUE(err error) []ValidationError {
	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "plan"
		}
		ve := ValidationError{
			Field:   field,
			Message: e.Error(),
			Code:    ErrCodeSchema,
		}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ve.Line = positions[0].Line()
		}
		errs = append(errs, ve)
	}
	if len(errs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "plan",
			Message: err.Error(),
			Code:    ErrCodeSchema,
		})
	}
	return errs
}
