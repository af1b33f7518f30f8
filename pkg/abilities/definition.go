package abilities

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// Call is one request to execute an ability.
type Call struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ClientCommand is an instruction the server only prepares; the live editing
// client is responsible for applying it and reporting the outcome back into
// the orchestration loop.
type ClientCommand struct {
	Type     string `json:"type"`
	Content  any    `json:"content,omitempty"`
	Position string `json:"position,omitempty"`
	PostID   int    `json:"post_id,omitempty"`
}

// Result is the outcome of a successful ability execution.
type Result struct {
	Data                    any            `json:"data,omitempty"`
	RequiresClientExecution bool           `json:"requires_client_execution,omitempty"`
	ClientCommand           *ClientCommand `json:"client_command,omitempty"`
}

// Definition describes one registered ability: its namespaced name, the JSON
// schema its input must satisfy, the capability its caller must hold, and the
// typed handler that executes it. Definitions are registered once during
// initialization and immutable afterwards.
type Definition struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Capability   string             `json:"capability,omitempty"`
	InputSchema  *jsonschema.Schema `json:"input_schema"`
	OutputSchema *jsonschema.Schema `json:"output_schema,omitempty"`

	handler  handlerFunc
	compiled *gojsonschema.Schema
}

type handlerFunc func(ctx context.Context, input []byte) (any, error)

type DefinitionOption func(*Definition)

// WithCapability marks the ability as requiring an explicit capability.
func WithCapability(capability string) DefinitionOption {
	return func(d *Definition) { d.Capability = capability }
}

// WithOutputType records an output schema reflected from a sample value.
func WithOutputType(sample any) DefinitionOption {
	return func(d *Definition) {
		d.OutputSchema = schemaReflector().Reflect(sample)
	}
}

func schemaReflector() *jsonschema.Reflector {
	// Expand definitions inline instead of using $refs, so the schema can be
	// handed to the model and to the validator as one self-contained object.
	return &jsonschema.Reflector{DoNotReference: true}
}

// NewFromFunc builds a Definition from a Go function. Supported signatures:
//
//	func(Input) (Output, error)
//	func(context.Context, Input) (Output, error)
//
// The input schema is generated by reflection over Input; at call time the
// executor validates raw input against it and then unmarshals into Input, so
// handlers only ever see the typed struct.
func NewFromFunc(name, description string, fn any, opts ...DefinitionOption) (*Definition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, errors.New("ability handler must be a function")
	}
	if funcType.NumOut() != 2 {
		return nil, errors.New("ability handler must return (result, error)")
	}
	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if !funcType.Out(1).Implements(errorType) {
		return nil, errors.New("ability handler's second return value must be an error")
	}

	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()
	var inputType reflect.Type
	wantsContext := false
	switch funcType.NumIn() {
	case 1:
		if funcType.In(0) == ctxType {
			return nil, errors.New("ability handler must take an input struct")
		}
		inputType = funcType.In(0)
	case 2:
		if funcType.In(0) != ctxType {
			return nil, errors.New("two-arg ability handler must be (context.Context, Input)")
		}
		wantsContext = true
		inputType = funcType.In(1)
	default:
		return nil, errors.New("ability handler must be (Input) or (context.Context, Input)")
	}

	inputSchema := schemaReflector().Reflect(reflect.New(inputType).Elem().Interface())
	if inputSchema.Type == "" && inputSchema.Ref == "" {
		inputSchema.Type = "object"
	}

	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, errors.Wrap(err, "marshal input schema")
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, errors.Wrap(err, "compile input schema")
	}

	funcValue := reflect.ValueOf(fn)
	handler := func(ctx context.Context, input []byte) (any, error) {
		in := reflect.New(inputType)
		if len(input) > 0 {
			if err := json.Unmarshal(input, in.Interface()); err != nil {
				return nil, errors.Wrap(err, "unmarshal ability input")
			}
		}

		var results []reflect.Value
		if wantsContext {
			results = funcValue.Call([]reflect.Value{reflect.ValueOf(ctx), in.Elem()})
		} else {
			results = funcValue.Call([]reflect.Value{in.Elem()})
		}
		if errVal := results[1].Interface(); errVal != nil {
			return nil, errVal.(error)
		}
		return results[0].Interface(), nil
	}

	def := &Definition{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		handler:     handler,
		compiled:    compiled,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(def)
		}
	}
	return def, nil
}

// Validate checks raw input against the ability's input schema. On failure
// the returned error names the first offending field.
func (d *Definition) Validate(input []byte) *AbilityError {
	if d.compiled == nil {
		return nil
	}
	if len(input) == 0 {
		input = []byte("{}")
	}
	result, err := d.compiled.Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		return NewValidationError(d.Name, "", err.Error())
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	field := first.Field()
	if field == "(root)" {
		if prop, ok := first.Details()["property"].(string); ok {
			field = prop
		}
	}
	return NewValidationError(d.Name, field, first.Description())
}

// Invoke runs the typed handler. Input must already have passed Validate.
func (d *Definition) Invoke(ctx context.Context, input []byte) (any, error) {
	if d.handler == nil {
		return nil, errors.Errorf("ability %s has no handler", d.Name)
	}
	return d.handler(ctx, input)
}
