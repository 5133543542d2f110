// Package contract embeds the OpenAPI description of the inventory API and
// validates requests against it.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

// ProductsPath is the collection endpoint for garment records.
const ProductsPath = "/api/products"

// FormLevelKey collects validation messages that do not point at a field.
const FormLevelKey = "_form"

//go:embed products.yaml
var productsDocument []byte

// Raw returns a copy of the embedded OpenAPI document.
func Raw() []byte {
	return append([]byte(nil), productsDocument...)
}

// Contract is a loaded, validated OpenAPI document.
type Contract struct {
	doc *openapi3.T
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*Contract, error) {
	return LoadFromData(ctx, productsDocument)
}

// LoadFromData parses and validates an arbitrary OpenAPI document.
func LoadFromData(ctx context.Context, raw []byte) (*Contract, error) {
	if len(raw) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contract: validate document: %w", err)
	}
	return &Contract{doc: doc}, nil
}

// Document exposes the parsed document.
func (c *Contract) Document() *openapi3.T {
	return c.doc
}

// ProductFields lists the required properties of a product submission in
// declaration order.
func (c *Contract) ProductFields() []string {
	route, err := c.Route(http.MethodPost, ProductsPath)
	if err != nil || route.Operation.RequestBody == nil || route.Operation.RequestBody.Value == nil {
		return nil
	}
	media := route.Operation.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	return append([]string(nil), media.Schema.Value.Required...)
}

// Route resolves the operation for method on path.
func (c *Contract) Route(method, path string) (*routers.Route, error) {
	item := c.doc.Paths.Value(path)
	if item == nil {
		return nil, fmt.Errorf("contract: unknown path %q", path)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return nil, fmt.Errorf("contract: %s not allowed on %q", method, path)
	}
	return &routers.Route{
		Spec:      c.doc,
		Path:      path,
		PathItem:  item,
		Method:    strings.ToUpper(method),
		Operation: op,
	}, nil
}

// ValidationError carries per-field messages derived from schema failures.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "contract: invalid request: " + strings.Join(parts, ", ")
}

// ValidateRequest checks r against the operation registered for path. The
// request body stays readable afterwards. Schema failures come back as
// *ValidationError.
func (c *Contract) ValidateRequest(ctx context.Context, r *http.Request, path string) error {
	route, err := c.Route(r.Method, path)
	if err != nil {
		return err
	}
	input := &openapi3filter.RequestValidationInput{
		Request: r,
		Route:   route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			MultiError:         true,
		},
	}
	err = openapi3filter.ValidateRequest(ctx, input)
	if err == nil {
		return nil
	}

	fields := map[string][]string{}
	collect(err, fields)
	if len(fields) == 0 {
		fields[FormLevelKey] = []string{err.Error()}
	}
	return &ValidationError{Fields: fields}
}

func collect(err error, out map[string][]string) {
	switch e := err.(type) {
	case nil:
		return
	case openapi3.MultiError:
		for _, inner := range e {
			collect(inner, out)
		}
	case *openapi3filter.RequestError:
		if e.Err == nil {
			out[FormLevelKey] = append(out[FormLevelKey], e.Error())
			return
		}
		collect(e.Err, out)
	case *openapi3.SchemaError:
		key := strings.Join(e.JSONPointer(), ".")
		if key == "" {
			key = FormLevelKey
		}
		out[key] = append(out[key], e.Reason)
	default:
		if inner := errors.Unwrap(err); inner != nil {
			collect(inner, out)
			return
		}
		out[FormLevelKey] = append(out[FormLevelKey], err.Error())
	}
}
