// Package tool defines the tool catalog model shared by the registry and the
// bridge: parameter schemas, argument validation, the error taxonomy and the
// result envelope that travels over the tool-access protocol.
package tool

import (
	"encoding/json"
	"fmt"
)

// ParamType enumerates the argument types tools accept.
type ParamType string

// Supported parameter types. JSON numbers arrive as float64; integer
// parameters accept whole floats.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
)

// Param describes a single tool argument.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// Schema describes one callable tool: its name and ordered parameters.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Params      []Param `json:"params,omitempty"`
}

// Param returns the named parameter declaration, if any.
func (s Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Validate checks args against the schema before any execution happens.
// Missing required parameters, unknown parameter names and type mismatches
// all fail with a validation error.
func (s Schema) Validate(args map[string]any) error {
	for _, p := range s.Params {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return Errorf(CodeValidation, "tool %s: missing required parameter %q", s.Name, p.Name)
			}
			continue
		}
		if err := checkType(p, v); err != nil {
			return err
		}
	}
	for name := range args {
		if _, ok := s.Param(name); !ok {
			return Errorf(CodeValidation, "tool %s: unknown parameter %q", s.Name, name)
		}
	}
	return nil
}

func checkType(p Param, v any) error {
	switch p.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return Errorf(CodeValidation, "parameter %q: expected string, got %T", p.Name, v)
		}
	case TypeInteger:
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return Errorf(CodeValidation, "parameter %q: expected integer, got %v", p.Name, n)
			}
		case int, int32, int64:
		default:
			return Errorf(CodeValidation, "parameter %q: expected integer, got %T", p.Name, v)
		}
	case TypeNumber:
		switch v.(type) {
		case float64, int, int32, int64:
		default:
			return Errorf(CodeValidation, "parameter %q: expected number, got %T", p.Name, v)
		}
	default:
		return Errorf(CodeInternal, "parameter %q: unsupported type %q", p.Name, p.Type)
	}
	return nil
}

// StringArg extracts a string argument. The second return reports presence.
func StringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntArg extracts an integer argument regardless of the decoded wire type.
func IntArg(args map[string]any, name string) (int64, bool) {
	switch n := args[name].(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// Result is the envelope every tool call resolves to. Exactly one of Payload
// and Err is set, keyed by OK. It is JSON-encoded as the single text content
// item of a tool-access response.
type Result struct {
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Err     *Error          `json:"error,omitempty"`
}

// Succeed wraps a payload value into a successful Result.
func Succeed(v any) Result {
	raw, err := json.Marshal(v)
	if err != nil {
		return Fail(Errorf(CodeInternal, "encode payload: %v", err))
	}
	return Result{OK: true, Payload: raw}
}

// Fail wraps an error into a failed Result, normalizing it to the taxonomy.
func Fail(err error) Result {
	return Result{Err: AsError(err)}
}

// Decode unmarshals a successful result's payload into v. Calling it on a
// failed result returns the carried error.
func (r Result) Decode(v any) error {
	if !r.OK {
		if r.Err != nil {
			return r.Err
		}
		return Errorf(CodeInternal, "tool call failed without error detail")
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return Errorf(CodeInternal, "decode payload: %v", err)
	}
	return nil
}

// String renders the result as the wire JSON, for logs and message parts.
func (r Result) String() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("{\"ok\":false,\"error\":{\"code\":%q,\"message\":%q}}", CodeInternal, err.Error())
	}
	return string(raw)
}
