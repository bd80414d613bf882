package registry

import (
	"fmt"

	"github.com/searchktools/jsonrpc/protocol"
)

// ValidationError reports a parameter shape mismatch: wrong arity, unknown
// named parameter, or missing required parameter. The dispatcher converts it
// to an InvalidParams wire error carrying the message as data.
type ValidationError struct {
	msg string
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Validator checks wire parameters against a method's contract. The strategy
// is attached per method at registration time: the default validates against
// a descriptor reflected once from the handler's parameter struct, and
// SchemaValidator validates against an explicit declarative schema.
type Validator interface {
	Validate(params protocol.Params) error
}

// descriptorValidator is the default, signature-derived strategy.
type descriptorValidator struct {
	params []Param
}

func (v *descriptorValidator) Validate(params protocol.Params) error {
	switch {
	case params.IsPositional():
		return v.validatePositional(params.List())
	case params.IsNamed():
		return v.validateNamed(params.Map())
	default:
		return v.validatePositional(nil)
	}
}

func (v *descriptorValidator) validatePositional(args []any) error {
	if len(args) > len(v.params) {
		return validationErrorf("expected at most %d parameters, got %d", len(v.params), len(args))
	}
	for i := len(args); i < len(v.params); i++ {
		if v.params[i].Required {
			return validationErrorf("missing required parameter '%s'", v.params[i].Name)
		}
	}
	return nil
}

func (v *descriptorValidator) validateNamed(kwargs map[string]any) error {
	byName := make(map[string]Param, len(v.params))
	for _, p := range v.params {
		byName[p.Name] = p
	}
	for name := range kwargs {
		if _, ok := byName[name]; !ok {
			return validationErrorf("unexpected parameter '%s'", name)
		}
	}
	for _, p := range v.params {
		if !p.Required {
			continue
		}
		if _, ok := kwargs[p.Name]; !ok {
			return validationErrorf("missing required parameter '%s'", p.Name)
		}
	}
	return nil
}

// SchemaValidator validates parameters against an explicit declarative
// schema instead of the handler signature. Useful when the handler takes a
// loose parameter struct but the wire contract is stricter.
type SchemaValidator struct {
	// Required and Optional name the accepted named parameters.
	Required []string
	Optional []string

	// MinArgs and MaxArgs bound the accepted positional arity.
	MinArgs int
	MaxArgs int
}

func (v *SchemaValidator) Validate(params protocol.Params) error {
	if params.IsNamed() {
		kwargs := params.Map()
		accepted := make(map[string]struct{}, len(v.Required)+len(v.Optional))
		for _, name := range v.Required {
			accepted[name] = struct{}{}
		}
		for _, name := range v.Optional {
			accepted[name] = struct{}{}
		}
		for name := range kwargs {
			if _, ok := accepted[name]; !ok {
				return validationErrorf("unexpected parameter '%s'", name)
			}
		}
		for _, name := range v.Required {
			if _, ok := kwargs[name]; !ok {
				return validationErrorf("missing required parameter '%s'", name)
			}
		}
		return nil
	}

	n := len(params.List())
	if n < v.MinArgs {
		return validationErrorf("expected at least %d parameters, got %d", v.MinArgs, n)
	}
	if n > v.MaxArgs {
		return validationErrorf("expected at most %d parameters, got %d", v.MaxArgs, n)
	}
	return nil
}
