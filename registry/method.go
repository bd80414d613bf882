// Package registry holds the name -> method table the dispatcher routes
// through. Handlers are plain Go functions; their parameter contract is
// reflected into an explicit descriptor once at registration time, and wire
// parameters are validated and bound against that descriptor on every call.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/searchktools/jsonrpc/protocol"
)

var (
	ErrInvalidHandler = errors.New("invalid handler signature")
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Param describes one parameter of a method: its wire name, whether it must
// be present, and the Go type it binds to.
type Param struct {
	Name     string
	Required bool

	index int
	typ   reflect.Type
}

// BoundCall is a zero-argument invocation produced by Method.Bind after
// parameter validation and context injection.
type BoundCall func() (any, error)

// Method wraps a handler function with its canonical name, its parameter
// descriptor and its validation strategy. Meta is a free-form side table for
// reflection and documentation consumers; the engine never reads it.
//
// Valid handler signatures:
//
//	func(ctx context.Context) (R, error)
//	func(ctx context.Context, params *P) (R, error)   // P a struct
//	func(ctx context.Context, params P) (R, error)
//
// Positional wire parameters bind to the fields of P in declaration order;
// named parameters bind by json tag (falling back to the field name). Fields
// whose json tag carries "omitempty" are optional, all others are required.
// Out-of-band per-call state travels in ctx, never in the wire parameters.
type Method struct {
	Name string
	Meta map[string]any

	fn        reflect.Value
	paramType reflect.Type // struct type, nil when the handler takes no params
	paramPtr  bool
	params    []Param
	validator Validator
}

// MethodOption configures a method at registration time.
type MethodOption func(*Method)

// WithValidator replaces the default signature-derived validator.
func WithValidator(v Validator) MethodOption {
	return func(m *Method) { m.validator = v }
}

// WithMeta attaches a metadata entry to the method.
func WithMeta(key string, value any) MethodOption {
	return func(m *Method) { m.Meta[key] = value }
}

// NewMethod reflects a handler into a method descriptor.
func NewMethod(name string, handler any, opts ...MethodOption) (*Method, error) {
	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("method %q: handler must be a function, got %T: %w", name, handler, ErrInvalidHandler)
	}

	ft := fn.Type()
	if ft.NumIn() < 1 || ft.NumIn() > 2 || ft.In(0) != ctxType {
		return nil, fmt.Errorf("method %q: handler must take (context.Context[, params]): %w", name, ErrInvalidHandler)
	}
	if ft.NumOut() != 2 || ft.Out(1) != errType {
		return nil, fmt.Errorf("method %q: handler must return (result, error): %w", name, ErrInvalidHandler)
	}

	m := &Method{
		Name: name,
		Meta: map[string]any{},
		fn:   fn,
	}

	if ft.NumIn() == 2 {
		pt := ft.In(1)
		if pt.Kind() == reflect.Pointer {
			m.paramPtr = true
			pt = pt.Elem()
		}
		if pt.Kind() != reflect.Struct {
			return nil, fmt.Errorf("method %q: params must be a struct or struct pointer: %w", name, ErrInvalidHandler)
		}
		m.paramType = pt
		m.params = paramsOf(pt)
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.validator == nil {
		m.validator = &descriptorValidator{params: m.params}
	}
	return m, nil
}

// Params returns the method's parameter descriptor.
func (m *Method) Params() []Param {
	out := make([]Param, len(m.params))
	copy(out, m.params)
	return out
}

// Func returns the underlying handler as a generic value, for documentation
// generators that want to inspect it.
func (m *Method) Func() any {
	return m.fn.Interface()
}

// Bind validates params, injects ctx and returns a zero-argument call.
func (m *Method) Bind(ctx context.Context, params protocol.Params) (BoundCall, error) {
	if err := m.validator.Validate(params); err != nil {
		return nil, err
	}

	args := []reflect.Value{reflect.ValueOf(ctx)}
	if m.paramType != nil {
		pv, err := m.bindParams(params)
		if err != nil {
			return nil, err
		}
		args = append(args, pv)
	} else if n := arity(params); n > 0 {
		return nil, validationErrorf("method takes no parameters, got %d", n)
	}

	return func() (any, error) {
		results := m.fn.Call(args)
		if !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}, nil
}

func (m *Method) bindParams(params protocol.Params) (reflect.Value, error) {
	pv := reflect.New(m.paramType)

	switch {
	case params.IsPositional():
		list := params.List()
		for i, p := range m.params {
			if i >= len(list) {
				break
			}
			if err := assign(pv.Elem().Field(p.index), list[i]); err != nil {
				return reflect.Value{}, validationErrorf("parameter '%s': %s", p.Name, err)
			}
		}
	case params.IsNamed():
		kwargs := params.Map()
		for _, p := range m.params {
			v, ok := kwargs[p.Name]
			if !ok {
				continue
			}
			if err := assign(pv.Elem().Field(p.index), v); err != nil {
				return reflect.Value{}, validationErrorf("parameter '%s': %s", p.Name, err)
			}
		}
	}

	if m.paramPtr {
		return pv, nil
	}
	return pv.Elem(), nil
}

// assign funnels a decoded wire value into a struct field through the json
// machinery, reusing its type coercion rules.
func assign(field reflect.Value, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, field.Addr().Interface()); err != nil {
		return fmt.Errorf("invalid type")
	}
	return nil
}

func arity(params protocol.Params) int {
	switch {
	case params.IsPositional():
		return len(params.List())
	case params.IsNamed():
		return len(params.Map())
	default:
		return 0
	}
}

// paramsOf builds the parameter descriptor from a struct type. Unexported
// fields and fields tagged json:"-" are skipped.
func paramsOf(t reflect.Type) []Param {
	params := make([]Param, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		required := true
		if tag, ok := field.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					required = false
				}
			}
		}

		params = append(params, Param{
			Name:     name,
			Required: required,
			index:    i,
			typ:      field.Type,
		})
	}
	return params
}
