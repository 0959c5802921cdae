// Package schema checks the shape of request bodies against embedded JSON
// Schemas before any domain logic runs.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"property-price-api/internal/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const predictRequestURL = "https://property-price-api/schemas/predict_request.json"

var predictRequest = mustCompile(predictRequestURL, "schemas/predict_request.json")

func mustCompile(url, file string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(file)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", file, err))
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", file, err))
	}
	s, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema %s: %v", file, err))
	}
	return s
}

// FieldError is one schema violation. Field is a dotted path, or "body" for
// problems with the document as a whole.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request body is not valid JSON or does
// not match its schema.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = d.Field + ": " + d.Message
	}
	return "request validation failed: " + strings.Join(msgs, "; ")
}

// predictBody accepts district as an alias of county
type predictBody struct {
	models.PropertyAttributes
	District string `json:"district"`
}

// ValidatePredictRequest checks body against the prediction request schema
// and decodes it.
func ValidatePredictRequest(body []byte) (models.PropertyAttributes, error) {
	if err := validate(predictRequest, body); err != nil {
		return models.PropertyAttributes{}, err
	}
	var req predictBody
	if err := json.Unmarshal(body, &req); err != nil {
		// e.g. 4.0 passes "integer" but does not fit an int field
		return models.PropertyAttributes{}, &ValidationError{Details: []FieldError{{Field: "body", Message: err.Error()}}}
	}
	attrs := req.PropertyAttributes
	if attrs.County == "" {
		attrs.County = req.District
	}
	return attrs, nil
}

func decodeDocument(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}

func validate(s *jsonschema.Schema, body []byte) error {
	doc, err := decodeDocument(body)
	if err != nil {
		return &ValidationError{Details: []FieldError{{Field: "body", Message: "malformed JSON: " + err.Error()}}}
	}

	err = s.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	details := collect(verr, nil)
	sort.SliceStable(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return &ValidationError{Details: details}
}

// collect flattens the cause tree into its leaves
func collect(e *jsonschema.ValidationError, out []FieldError) []FieldError {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			out = collect(c, out)
		}
		return out
	}

	if names, ok := missingProperties(e.Message); ok {
		for _, name := range names {
			out = append(out, FieldError{Field: joinField(e.InstanceLocation, name), Message: "field required"})
		}
		return out
	}
	return append(out, FieldError{Field: joinField(e.InstanceLocation, ""), Message: e.Message})
}

// missingProperties parses "missing properties: 'a', 'b'"
func missingProperties(msg string) ([]string, bool) {
	rest, ok := strings.CutPrefix(msg, "missing properties: ")
	if !ok {
		return nil, false
	}
	var names []string
	for _, p := range strings.Split(rest, ",") {
		names = append(names, strings.Trim(strings.TrimSpace(p), "'"))
	}
	return names, true
}

func joinField(pointer, name string) string {
	parts := strings.Split(strings.Trim(pointer, "/"), "/")
	if parts[0] == "" {
		parts = parts[:0]
	}
	if name != "" {
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "body"
	}
	return strings.Join(parts, ".")
}
