package xlref

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"dario.cat/mergo"

	"github.com/yamitzky/xlref-go/workbook"
)

func builtinFilters() map[string]Filter {
	return map[string]Filter{
		"array":     arrayFilter,
		"full":      fullFilter,
		"ref":       refFilter,
		"recursive": recursiveFilter,
		"dict":      dictFilter,
		"T":         transposeFilter,
		"xldate":    xldateFilter,
	}
}

type dtypeKw struct {
	Dtype string `mapstructure:"dtype"`
}

// dtypeOption reads the element type from the first positional argument or
// the dtype keyword.
func dtypeOption(args []any, kw map[string]any) (string, bool, error) {
	opts := dtypeKw{}
	if err := decodeKw(kw, &opts); err != nil {
		return "", false, err
	}
	_, fromKw := kw["dtype"]
	if len(args) > 0 {
		if fromKw {
			return "", false, errors.New("dtype given both as argument and keyword")
		}
		name, ok := args[0].(string)
		if !ok {
			return "", false, fmt.Errorf("dtype must be a string, got %T", args[0])
		}
		return name, true, nil
	}
	return opts.Dtype, fromKw, nil
}

func arrayFilter(_ *Ref, value any, args []any, kw map[string]any) (any, error) {
	dtype, _, err := dtypeOption(args, kw)
	if err != nil {
		return nil, err
	}
	return toArray(value, dtype)
}

// fullFilter drops the null entries of every row.
func fullFilter(_ *Ref, value any, _ []any, _ map[string]any) (any, error) {
	rows, ok := listItems(value)
	if !ok {
		return value, nil
	}
	if len(rows) > 0 && !isList(rows[0]) {
		return dropNulls(rows), nil
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		items, ok := listItems(row)
		if !ok {
			return nil, fmt.Errorf("row %d is not a list", i)
		}
		out[i] = dropNulls(items)
	}
	return out, nil
}

func dropNulls(items []any) []any {
	out := make([]any, 0, len(items))
	for _, v := range items {
		if !workbook.IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// refFilter resolves value as a reference nested in ref. Values that are not
// references come back unchanged; a search that finds no full cell yields a
// *Failure in place of the values.
func refFilter(ref *Ref, value any, _ []any, _ map[string]any) (any, error) {
	text, ok := value.(string)
	if !ok {
		return value, nil
	}
	child, err := ref.Child(text)
	if err == nil {
		var out any
		if out, err = child.Values(); err == nil {
			return out, nil
		}
	}
	switch {
	case errors.Is(err, ErrInvalidReference):
		return value, nil
	case errors.Is(err, ErrNoFullCell):
		ref.Logger().WithError(err).WithField("nested", text).Debug("nested reference kept as failure")
		return &Failure{Err: err}, nil
	}
	return nil, err
}

func recursiveFilter(ref *Ref, value any, args []any, kw map[string]any) (any, error) {
	dtype, typed, err := dtypeOption(args, kw)
	if err != nil {
		return nil, err
	}
	out, err := mapLeaves(value, func(v any) (any, error) {
		return refFilter(ref, v, nil, nil)
	})
	if err != nil || !typed {
		return out, err
	}
	return toArray(out, dtype)
}

type dictKw struct {
	Key   any `mapstructure:"key"`
	Value any `mapstructure:"value"`
}

// dictFilter turns rows into a mapping keyed by their first column. The key
// and value keywords hold filter specs applied to every key and value.
func dictFilter(ref *Ref, value any, args []any, kw map[string]any) (any, error) {
	opts := dictKw{}
	if err := decodeKw(kw, &opts); err != nil {
		return nil, err
	}
	if len(args) > 0 && opts.Key == nil {
		opts.Key = args[0]
	}
	if len(args) > 1 && opts.Value == nil {
		opts.Value = args[1]
	}
	keyFn, err := nestedPipeline(ref, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	valueFn, err := nestedPipeline(ref, opts.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	rows, ok := listItems(value)
	if !ok {
		return nil, fmt.Errorf("cannot build a mapping from %T", value)
	}
	out := map[string]any{}
	for i, row := range rows {
		cols, ok := listItems(row)
		if !ok || len(cols) < 2 {
			return nil, fmt.Errorf("row %d needs a key and at least one value", i)
		}
		if workbook.IsNull(cols[0]) {
			continue
		}
		var v any = cols[1]
		if len(cols) > 2 {
			v = append([]any(nil), cols[1:]...)
		}

		k, err := keyFn(cols[0])
		if err != nil {
			return nil, err
		}
		if v, err = valueFn(v); err != nil {
			return nil, err
		}

		km, keyIsMap := k.(map[string]any)
		vm, valueIsMap := v.(map[string]any)
		if keyIsMap {
			if err := mergo.Merge(&out, km, mergo.WithOverride); err != nil {
				return nil, err
			}
		}
		if valueIsMap {
			if err := mergo.Merge(&out, vm, mergo.WithOverride); err != nil {
				return nil, err
			}
		}
		if !keyIsMap && !valueIsMap {
			out[mappingKey(k)] = v
		}
	}
	return out, nil
}

// nestedPipeline compiles filter specs held in a keyword with the registry in
// force; a missing spec is the identity.
func nestedPipeline(ref *Ref, spec any) (Pipeline, error) {
	if spec == nil {
		return func(v any) (any, error) { return v, nil }, nil
	}
	specs, err := ParseFilterSpecs(spec)
	if err != nil {
		return nil, err
	}
	return ref.Options().Filters.Compile(specs, ref)
}

// mappingKey renders a key the way JSON object keys are written.
func mappingKey(k any) string {
	if f, ok := k.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return formatScalar(k)
}

func transposeFilter(_ *Ref, value any, _ []any, _ map[string]any) (any, error) {
	return transpose(value)
}

type xldateKw struct {
	Datemode int `mapstructure:"datemode"`
}

// xldateFilter converts Excel serial date numbers into RFC 3339 strings.
// Other values pass through.
func xldateFilter(_ *Ref, value any, args []any, kw map[string]any) (any, error) {
	opts := xldateKw{}
	if err := decodeKw(kw, &opts); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		mode, err := toInt(args[0])
		if err != nil {
			return nil, err
		}
		opts.Datemode = int(mode.(int64))
	}
	return mapLeaves(value, func(v any) (any, error) {
		f, ok := v.(float64)
		if !ok {
			return v, nil
		}
		t, err := XldateAsDatetime(f, opts.Datemode)
		if err != nil {
			return nil, err
		}
		return t.Format(time.RFC3339Nano), nil
	})
}
