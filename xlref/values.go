package xlref

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
)

var errRagged = errors.New("inhomogeneous shape: rows differ in length")

// asList unwraps interfaces and reports whether v is a slice or array.
// Strings are scalars.
func asList(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return v, false
	}
	return v, v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

func isList(v any) bool {
	_, ok := asList(reflect.ValueOf(v))
	return ok
}

// listItems returns the elements of a slice value as []any, or false for scalars.
func listItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv, ok := asList(reflect.ValueOf(v))
	if !ok {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// shapeOf returns the dimensions of a rectangular nested list. Scalars have
// an empty shape.
func shapeOf(v any) ([]int, error) {
	items, ok := listItems(v)
	if !ok {
		return nil, nil
	}
	if len(items) == 0 {
		return []int{0}, nil
	}
	var sub []int
	for i, item := range items {
		s, err := shapeOf(item)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			sub = s
		} else if !equalShape(sub, s) {
			return nil, errRagged
		}
	}
	return append([]int{len(items)}, sub...), nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mapLeaves applies fn to every scalar of a nested list, keeping its shape.
func mapLeaves(v any, fn func(any) (any, error)) (any, error) {
	items, ok := listItems(v)
	if !ok {
		return fn(v)
	}
	out := make([]any, len(items))
	for i, item := range items {
		mapped, err := mapLeaves(item, fn)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}

// flatten returns the scalars of a nested list in row-major order.
func flatten(v any) []any {
	items, ok := listItems(v)
	if !ok {
		return []any{v}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if isList(item) {
			out = append(out, flatten(item)...)
		} else {
			out = append(out, item)
		}
	}
	return out
}

// transpose swaps the axes of a 2-D list. Scalars and 1-D lists are returned
// unchanged.
func transpose(v any) (any, error) {
	shape, err := shapeOf(v)
	if err != nil {
		return nil, err
	}
	switch {
	case len(shape) < 2:
		return v, nil
	case len(shape) > 2:
		return nil, fmt.Errorf("cannot transpose a %d-dimensional value", len(shape))
	}

	rv, _ := asList(reflect.ValueOf(v))
	outType := reflect.TypeOf([][]any{})
	if rv.Type().Elem().Kind() == reflect.Slice {
		outType = rv.Type()
	}
	rows, cols := shape[0], shape[1]
	out := reflect.MakeSlice(outType, cols, cols)
	for j := 0; j < cols; j++ {
		col := reflect.MakeSlice(outType.Elem(), rows, rows)
		for i := 0; i < rows; i++ {
			row, _ := asList(rv.Index(i))
			col.Index(i).Set(row.Index(j))
		}
		out.Index(j).Set(col)
	}
	return out.Interface(), nil
}

// dtype converts one scalar to an element type.
type dtype struct {
	typ     reflect.Type
	convert func(any) (any, error)
}

var dtypes = map[string]dtype{
	"int":    {reflect.TypeOf(int64(0)), toInt},
	"float":  {reflect.TypeOf(float64(0)), toFloat},
	"str":    {reflect.TypeOf(""), toStr},
	"bool":   {reflect.TypeOf(false), toBool},
	"object": {reflect.TypeOf((*any)(nil)).Elem(), func(v any) (any, error) { return v, nil }},
}

var dtypeAliases = map[string]string{
	"int64":   "int",
	"int32":   "int",
	"integer": "int",
	"float64": "float",
	"float32": "float",
	"double":  "float",
	"string":  "str",
	"unicode": "str",
	"boolean": "bool",
	"o":       "object",
	"":        "object",
	"any":     "object",
}

func lookupDtype(name string) (dtype, error) {
	key := strings.ToLower(name)
	if alias, ok := dtypeAliases[key]; ok {
		key = alias
	}
	dt, ok := dtypes[key]
	if !ok {
		return dtype{}, fmt.Errorf("unsupported dtype %q", name)
	}
	return dt, nil
}

// toArray coerces v into a rectangular nested slice whose scalars have the
// given element type, e.g. [][]int64 for a 2-D value with dtype "int".
func toArray(v any, dtypeName string) (any, error) {
	dt, err := lookupDtype(dtypeName)
	if err != nil {
		return nil, err
	}
	shape, err := shapeOf(v)
	if err != nil {
		return nil, err
	}
	typ := dt.typ
	for range shape {
		typ = reflect.SliceOf(typ)
	}
	out, err := buildArray(v, typ, dt)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func buildArray(v any, typ reflect.Type, dt dtype) (reflect.Value, error) {
	if typ.Kind() != reflect.Slice || typ == dt.typ {
		converted, err := dt.convert(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if converted == nil {
			return reflect.Zero(typ), nil
		}
		return reflect.ValueOf(converted), nil
	}
	items, _ := listItems(v)
	out := reflect.MakeSlice(typ, len(items), len(items))
	for i, item := range items {
		elem, err := buildArray(item, typ.Elem(), dt)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		if math.IsNaN(x) {
			return nil, fmt.Errorf("cannot convert %v to int", x)
		}
		n, err := safecast.Convert[int64](math.Trunc(x))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %v to int: %w", x, err)
		}
		return n, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(f)
		}
	}
	return nil, fmt.Errorf("cannot convert %#v to int", v)
}

func toFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %#v to float", v)
}

func toStr(v any) (any, error) {
	return formatScalar(v), nil
}

func toBool(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case string:
		return x != "", nil
	}
	return true, nil
}

// formatScalar renders a cell value as text; whole floats lose their fraction.
func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case error:
		return x.Error()
	}
	return fmt.Sprint(v)
}
