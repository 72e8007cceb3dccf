package xlref

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var refPattern = regexp.MustCompile(`(?i)^\s*` +
	`(?P<file>[^!#]+)?\s*#\s*` + // workbook file
	`(?:(?P<sheet>[^!]+)?!)?\s*` + // sheet name
	`(?P<st_col>[A-Z]+|_|\^)\s*` + // start cell
	`(?P<st_row>\d+|_|\^)\s*` +
	`(?:\(\s*(?P<st_mov>L|U|R|D|LD|LU|UL|UR|RU|RD|DL|DR)\s*\))?\s*` +
	`(?::\s*` + // end cell
	`(?P<nd_col>[A-Z]+|_|\^|\.)\s*` +
	`(?P<nd_row>\d+|_|\^|\.)\s*` +
	`(?:\(\s*(?P<nd_mov>L|U|R|D|LD|LU|UL|UR|RU|RD|DL|DR)\s*\))?` +
	`)?\s*` +
	`(?::\s*(?P<range_exp>[LURD]+))?\s*` + // expansion
	`(?P<filters>[\[{].*[\]}])?\s*$`)

// Anchor is one corner of a reference: a column, a row and an optional
// movement guiding the search for a full cell.
type Anchor struct {
	Row  Coord
	Col  Coord
	Move string
}

// FilterSpec is one stage of a filter pipeline.
type FilterSpec struct {
	Name string
	Args []any
	Kw   map[string]any
}

// Descriptor is a parsed reference.
type Descriptor struct {
	File      string
	Sheet     string
	Start     Anchor
	End       *Anchor
	Expansion string
	Filters   []FilterSpec
}

// Parse parses a reference string. A string that does not match the
// grammar fails with *InvalidSyntaxError; any other failure with
// *InvalidReferenceError.
func Parse(ref string) (*Descriptor, error) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return nil, &InvalidSyntaxError{Ref: ref}
	}
	group := func(name string) string {
		return m[refPattern.SubexpIndex(name)]
	}

	d := &Descriptor{
		File:      strings.TrimSpace(group("file")),
		Sheet:     strings.TrimSpace(group("sheet")),
		Expansion: strings.ToUpper(group("range_exp")),
	}

	var err error
	if d.Start, err = newAnchor(group("st_col"), group("st_row"), group("st_mov")); err != nil {
		return nil, &InvalidReferenceError{Ref: ref, Cause: err}
	}
	if group("nd_col") != "" {
		end, err := newAnchor(group("nd_col"), group("nd_row"), group("nd_mov"))
		if err != nil {
			return nil, &InvalidReferenceError{Ref: ref, Cause: err}
		}
		d.End = &end
	}
	if d.Filters, err = parseFilters(group("filters")); err != nil {
		return nil, &InvalidReferenceError{Ref: ref, Cause: err}
	}
	return d, nil
}

func newAnchor(col, row, move string) (Anchor, error) {
	c, err := parseCol(col)
	if err != nil {
		return Anchor{}, err
	}
	r, err := parseRow(row)
	if err != nil {
		return Anchor{}, err
	}
	return Anchor{Row: r, Col: c, Move: strings.ToUpper(move)}, nil
}

func parseFilters(text string) ([]FilterSpec, error) {
	if text == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("malformed filters: %w", err)
	}
	return ParseFilterSpecs(v)
}

// ParseFilterSpecs converts decoded JSON into filter specs. It accepts a
// filter name, a filter object or a list of either.
func ParseFilterSpecs(v any) ([]FilterSpec, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	specs := make([]FilterSpec, 0, len(items))
	for i, item := range items {
		spec, err := parseFilterSpec(item)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseFilterSpec(item any) (FilterSpec, error) {
	switch v := item.(type) {
	case string:
		return FilterSpec{Name: v}, nil
	case map[string]any:
		name, ok := v["fun"].(string)
		if !ok {
			return FilterSpec{}, fmt.Errorf(`"fun" must be a string, got %T`, v["fun"])
		}
		spec := FilterSpec{Name: name}
		if args, found := v["args"]; found {
			list, ok := args.([]any)
			if !ok {
				return FilterSpec{}, fmt.Errorf(`"args" must be a list, got %T`, args)
			}
			spec.Args = list
		}
		if kw, found := v["kw"]; found {
			m, ok := kw.(map[string]any)
			if !ok {
				return FilterSpec{}, fmt.Errorf(`"kw" must be an object, got %T`, kw)
			}
			spec.Kw = m
		} else {
			spec.Kw = map[string]any{}
			for k, val := range v {
				if k != "fun" && k != "args" {
					spec.Kw[k] = val
				}
			}
		}
		return spec, nil
	default:
		return FilterSpec{}, fmt.Errorf("expected a name or an object, got %T", item)
	}
}
