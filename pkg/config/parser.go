package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parser decodes settings files onto a Settings value.
type Parser struct {
	ctx       *cue.Context
	schema    cue.Value
	validator *validator.Validate
}

// NewParser creates a parser with the settings schema compiled.
func NewParser() (*Parser, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}
	return &Parser{
		ctx:       ctx,
		schema:    schema,
		validator: validator.New(),
	}, nil
}

// ParseFile decodes the file at path onto s. Fields the file does not set
// keep their current value.
func (p *Parser) ParseFile(path string, s *Settings) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	return p.Parse(path, content, s)
}

// Parse decodes content onto s, choosing the format from the extension of
// name.
func (p *Parser) Parse(name string, content []byte, s *Settings) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		return p.parseCUE(name, content, s)
	case ".yaml", ".yml", ".json":
		return p.parseYAML(name, content, s)
	default:
		return fmt.Errorf("unsupported settings file format: %s", name)
	}
}

func (p *Parser) parseCUE(name string, content []byte, s *Settings) error {
	val := p.ctx.CompileBytes(content, cue.Filename(name))
	if err := val.Err(); err != nil {
		return &ParseError{Errors: convertCUEErrors(err)}
	}

	unified := p.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ParseError{Errors: convertCUEErrors(err)}
	}

	// Going through JSON leaves fields absent from this file untouched.
	data, err := unified.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", name, err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

var yamlLinePattern = regexp.MustCompile(`^(?:yaml: )?line (\d+): (.*)$`)

func (p *Parser) parseYAML(name string, content []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	err := dec.Decode(s)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var messages []string
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		messages = typeErr.Errors
	} else {
		messages = []string{err.Error()}
	}

	verrs := make([]ValidationError, 0, len(messages))
	for _, msg := range messages {
		ve := ValidationError{File: name, Message: msg}
		if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
			ve.Line, _ = strconv.Atoi(m[1])
			ve.Message = m[2]
		}
		verrs = append(verrs, ve)
	}
	return &ParseError{Errors: verrs}
}

// Validate checks the merged settings against their struct tags.
func (p *Parser) Validate(s *Settings) error {
	err := p.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verrs := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		verrs = append(verrs, ValidationError{
			Path:    strings.TrimPrefix(fe.Namespace(), "Settings."),
			Message: describeFieldError(fe),
		})
	}
	return &ParseError{Errors: verrs}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// convertCUEErrors converts CUE errors to ValidationError values.
func convertCUEErrors(err error) []ValidationError {
	var verrs []ValidationError

	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Message: cueerrors.Details(e, nil),
			Path:    strings.Join(e.Path(), "."),
		}
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			ve.File = pos[0].Filename()
			ve.Line = pos[0].Line()
			ve.Column = pos[0].Column()
		}
		verrs = append(verrs, ve)
	}

	return verrs
}
