package xlref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter transforms the value extracted by a reference. ref is the
// reference being resolved; nested references are resolved through it.
type Filter func(ref *Ref, value any, args []any, kw map[string]any) (any, error)

// Operation is a value-level filter that needs no reference context.
type Operation func(value any, args []any, kw map[string]any) (any, error)

// Pipeline applies a compiled chain of filters, left to right.
type Pipeline func(value any) (any, error)

// Registry maps filter names to filters.
type Registry struct {
	filters map[string]Filter
}

// DefaultRegistry holds the built-in filters.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with the built-in filters.
func NewRegistry() *Registry {
	r := &Registry{filters: map[string]Filter{}}
	for name, f := range builtinFilters() {
		r.Register(name, f)
	}
	return r
}

// Register adds or replaces a filter.
func (r *Registry) Register(name string, f Filter) {
	r.filters[name] = f
}

// Clone returns an independent copy of r, to extend without affecting r.
func (r *Registry) Clone() *Registry {
	out := &Registry{filters: make(map[string]Filter, len(r.filters))}
	for name, f := range r.filters {
		out.filters[name] = f
	}
	return out
}

// Names returns the registered filter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a registered filter, falling back to the generic operations.
func (r *Registry) Lookup(name string) (Filter, bool) {
	if f, ok := r.filters[name]; ok {
		return f, true
	}
	if op, ok := operations[name]; ok {
		return func(_ *Ref, value any, args []any, kw map[string]any) (any, error) {
			return op(value, args, kw)
		}, true
	}
	return nil, false
}

// Compile resolves every filter name up front and returns the pipeline.
// An empty spec list yields the identity.
func (r *Registry) Compile(specs []FilterSpec, ref *Ref) (Pipeline, error) {
	type stage struct {
		spec FilterSpec
		fn   Filter
	}
	stages := make([]stage, 0, len(specs))
	for _, spec := range specs {
		fn, ok := r.Lookup(spec.Name)
		if !ok {
			return nil, &UnknownFilterError{Name: spec.Name}
		}
		stages = append(stages, stage{spec: spec, fn: fn})
	}

	return func(value any) (any, error) {
		var err error
		for _, st := range stages {
			if value, err = st.fn(ref, value, st.spec.Args, st.spec.Kw); err != nil {
				return nil, fmt.Errorf("filter %s: %w", st.spec.Name, err)
			}
		}
		return value, nil
	}, nil
}

// decodeKw decodes filter keywords into out, rejecting unknown keys.
func decodeKw(kw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(kw)
}

var operations = map[string]Operation{
	"lower":   caseOperation(func() cases.Caser { return cases.Lower(language.Und) }),
	"upper":   caseOperation(func() cases.Caser { return cases.Upper(language.Und) }),
	"title":   caseOperation(func() cases.Caser { return cases.Title(language.Und) }),
	"strip":   strip,
	"tolist":  tolist,
	"flatten": ravel,
	"ravel":   ravel,
	"item":    item,
	"len":     length,
}

// caseOperation builds a fresh Caser per call; Casers keep state.
func caseOperation(newCaser func() cases.Caser) Operation {
	return func(value any, args []any, kw map[string]any) (any, error) {
		return eachString(newCaser().String)(value, args, kw)
	}
}

func eachString(fn func(string) string) Operation {
	return func(value any, _ []any, _ map[string]any) (any, error) {
		return mapLeaves(value, func(v any) (any, error) {
			if s, ok := v.(string); ok {
				return fn(s), nil
			}
			return v, nil
		})
	}
}

func strip(value any, args []any, _ map[string]any) (any, error) {
	trim := strings.TrimSpace
	if len(args) > 0 {
		cutset, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("strip characters must be a string, got %T", args[0])
		}
		trim = func(s string) string { return strings.Trim(s, cutset) }
	}
	return eachString(trim)(value, nil, nil)
}

func tolist(value any, _ []any, _ map[string]any) (any, error) {
	return mapLeaves(value, func(v any) (any, error) { return v, nil })
}

func ravel(value any, _ []any, _ map[string]any) (any, error) {
	return flatten(value), nil
}

func item(value any, args []any, _ map[string]any) (any, error) {
	flat := flatten(value)
	if len(args) == 0 {
		if len(flat) != 1 {
			return nil, fmt.Errorf("can only convert a value of size 1 to a scalar, got size %d", len(flat))
		}
		return flat[0], nil
	}
	i, err := toInt(args[0])
	if err != nil {
		return nil, err
	}
	idx := int(i.(int64))
	if idx < 0 {
		idx += len(flat)
	}
	if idx < 0 || idx >= len(flat) {
		return nil, fmt.Errorf("index %v is out of bounds for size %d", args[0], len(flat))
	}
	return flat[idx], nil
}

func length(value any, _ []any, _ map[string]any) (any, error) {
	if s, ok := value.(string); ok {
		return int64(len([]rune(s))), nil
	}
	if m, ok := value.(map[string]any); ok {
		return int64(len(m)), nil
	}
	items, ok := listItems(value)
	if !ok {
		return nil, fmt.Errorf("value of type %T has no length", value)
	}
	return int64(len(items)), nil
}
