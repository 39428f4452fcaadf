// Package command maps named remote operations onto the playback
// controller and the device-global controls.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/smazurov/canister/internal/animation"
	"github.com/smazurov/canister/internal/events"
)

// ParamType is the type an argument is decoded to.
type ParamType string

// Parameter types
const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "int"
	TypeBool   ParamType = "bool"
	TypeFloat  ParamType = "float"
	TypeColor  ParamType = "color"
)

// Param describes one positional argument.
type Param struct {
	Name     string
	Type     ParamType
	Optional bool
	// Default is used when an optional argument is omitted. It must have
	// the Go type the param decodes to.
	Default any
}

// Handler runs an operation with decoded arguments and returns the
// response text.
type Handler func(ctx context.Context, args Args) (string, error)

// Operation is one entry in the registry.
type Operation struct {
	Name    string
	Params  []Param
	Help    string
	Handler Handler
}

// Usage renders the operation signature, e.g. "mute [on:bool]".
func (op Operation) Usage() string {
	var b bytes.Buffer
	b.WriteString(op.Name)
	for _, p := range op.Params {
		if p.Optional {
			fmt.Fprintf(&b, " [%s:%s]", p.Name, p.Type)
		} else {
			fmt.Fprintf(&b, " <%s:%s>", p.Name, p.Type)
		}
	}
	return b.String()
}

// Publisher receives dispatch events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// Registry is the table of operations. It is built once at startup and
// read concurrently afterwards.
type Registry struct {
	ops    map[string]Operation
	order  []string
	bus    Publisher
	logger *slog.Logger
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(bus Publisher, logger *slog.Logger) *Registry {
	return &Registry{
		ops:    make(map[string]Operation),
		bus:    bus,
		logger: logger,
	}
}

// Register adds op. It panics on a duplicate name or a malformed
// parameter list, both of which are programming errors.
func (r *Registry) Register(op Operation) {
	if op.Name == "" || op.Handler == nil {
		panic("command: operation needs a name and a handler")
	}
	if _, exists := r.ops[op.Name]; exists {
		panic(fmt.Sprintf("command: duplicate operation %q", op.Name))
	}
	optional := false
	for _, p := range op.Params {
		if optional && !p.Optional {
			panic(fmt.Sprintf("command: %s: required param %q follows an optional one", op.Name, p.Name))
		}
		optional = p.Optional
	}
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.ops[name]
	return ok
}

// Operations returns the registered operations in registration order.
func (r *Registry) Operations() []Operation {
	ops := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		ops = append(ops, r.ops[name])
	}
	return ops
}

// Names returns the registered operation names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Dispatch decodes req's arguments against the operation's params and runs
// its handler.
func (r *Registry) Dispatch(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	result, err := r.dispatch(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Warn("Command failed", "command", req.Command, "source", req.Source, "error", err)
	} else {
		r.logger.Debug("Command handled", "command", req.Command, "source", req.Source, "duration", elapsed)
	}

	if r.bus != nil {
		r.bus.Publish(events.CommandHandledEvent{
			Command:   req.Command,
			Source:    req.Source,
			OK:        err == nil,
			Code:      Code(err),
			Duration:  elapsed.String(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return result, err
}

func (r *Registry) dispatch(ctx context.Context, req Request) (string, error) {
	op, ok := r.ops[req.Command]
	if !ok {
		return "", unknownOperation(req.Command)
	}
	args, err := decodeArgs(op, req.Args)
	if err != nil {
		return "", err
	}
	return op.Handler(ctx, args)
}

func decodeArgs(op Operation, raw []json.RawMessage) (Args, error) {
	if len(raw) > len(op.Params) {
		return nil, argumentMismatch(op.Name,
			fmt.Sprintf("takes at most %d arguments, got %d (usage: %s)", len(op.Params), len(raw), op.Usage()), nil)
	}

	args := make(Args, len(op.Params))
	for i, p := range op.Params {
		if i >= len(raw) {
			if !p.Optional {
				return nil, argumentMismatch(op.Name,
					fmt.Sprintf("missing argument %q (usage: %s)", p.Name, op.Usage()), nil)
			}
			args[i] = p.Default
			continue
		}
		v, err := decodeArg(p.Type, raw[i])
		if err != nil {
			return nil, argumentMismatch(op.Name, fmt.Sprintf("argument %q must be %s", p.Name, p.Type), err)
		}
		args[i] = v
	}
	return args, nil
}

func decodeArg(t ParamType, raw json.RawMessage) (any, error) {
	// null unmarshals into any target without an error and leaves it zero.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("null is not a %s", t)
	}
	switch t {
	case TypeString:
		return scalarText(raw)
	case TypeInt:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b, nil
		}
		switch s, _ := scalarText(raw); s {
		case "1", "on", "yes":
			return true, nil
		case "0", "off", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%s is not a boolean", raw)
	case TypeFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return f, nil
	case TypeColor:
		var c animation.Color
		if err := json.Unmarshal(raw, &c); err == nil {
			return c, nil
		}
		// Bare hex digits such as 112233 arrive as a JSON number.
		s, err := scalarText(raw)
		if err != nil {
			return nil, err
		}
		return animation.ParseColor(s)
	default:
		return nil, fmt.Errorf("unknown param type %q", t)
	}
}

// scalarText returns a JSON string's value, or the literal text of a
// number or boolean.
func scalarText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch v.(type) {
	case float64, bool:
		return string(bytes.TrimSpace(raw)), nil
	}
	return "", fmt.Errorf("%s is not a scalar", raw)
}

// Args holds decoded arguments, one per param, in param order.
type Args []any

// String returns argument i as a string.
func (a Args) String(i int) string {
	s, _ := a[i].(string)
	return s
}

// Int returns argument i as an int.
func (a Args) Int(i int) int {
	n, _ := a[i].(int)
	return n
}

// Bool returns argument i as a bool.
func (a Args) Bool(i int) bool {
	b, _ := a[i].(bool)
	return b
}

// Float returns argument i as a float64.
func (a Args) Float(i int) float64 {
	f, _ := a[i].(float64)
	return f
}

// Color returns argument i as a color.
func (a Args) Color(i int) animation.Color {
	c, _ := a[i].(animation.Color)
	return c
}
