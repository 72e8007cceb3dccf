package xlref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullReference(t *testing.T) {
	t.Parallel()

	d, err := Parse(`book.xlsx#Sheet1!A1(DR):..(UL):LD[{"fun":"array","dtype":"int"}]`)
	require.NoError(t, err)

	assert.Equal(t, "book.xlsx", d.File)
	assert.Equal(t, "Sheet1", d.Sheet)
	assert.Equal(t, Anchor{Row: At(0), Col: At(0), Move: "DR"}, d.Start)
	require.NotNil(t, d.End)
	assert.Equal(t, Anchor{Row: Sym(Paired), Col: Sym(Paired), Move: "UL"}, *d.End)
	assert.Equal(t, "LD", d.Expansion)
	assert.Equal(t, []FilterSpec{{Name: "array", Kw: map[string]any{"dtype": "int"}}}, d.Filters)
}

func TestParseAcceptedForms(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		ref   string
		file  string
		sheet string
		start Anchor
		end   *Anchor
		exp   string
	}{
		{"#A1", "", "", Anchor{Row: At(0), Col: At(0)}, nil, ""},
		{"#s!b2", "", "s", Anchor{Row: At(1), Col: At(1)}, nil, ""},
		{"f.csv#^_", "f.csv", "", Anchor{Row: Sym(Last), Col: Sym(First)}, nil, ""},
		{"#C3(u)", "", "", Anchor{Row: At(2), Col: At(2), Move: "U"}, nil, ""},
		{"#A1:C_", "", "", Anchor{Row: At(0), Col: At(0)}, &Anchor{Row: Sym(Last), Col: At(2)}, ""},
		{"#A1:rd", "", "", Anchor{Row: At(0), Col: At(0)}, nil, "RD"},
		{" dir/f.xlsx # My Sheet ! A1 ", "dir/f.xlsx", "My Sheet", Anchor{Row: At(0), Col: At(0)}, nil, ""},
	}
	for _, tc := range testCases {
		d, err := Parse(tc.ref)
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.file, d.File, tc.ref)
		assert.Equal(t, tc.sheet, d.Sheet, tc.ref)
		assert.Equal(t, tc.start, d.Start, tc.ref)
		assert.Equal(t, tc.end, d.End, tc.ref)
		assert.Equal(t, tc.exp, d.Expansion, tc.ref)
	}
}

func TestParseRejectsSyntax(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"", "A1", "hello world", "#", "#A", "#1", "#A1(X)", "#A1:B2:Q", "#A1 trailing"} {
		_, err := Parse(ref)
		require.Error(t, err, ref)

		var syntax *InvalidSyntaxError
		assert.True(t, errors.As(err, &syntax), ref)
		assert.ErrorIs(t, err, ErrInvalidReference, ref)
	}
}

func TestParseRejectsDescriptor(t *testing.T) {
	t.Parallel()

	testCases := []string{
		"#A0",
		"#A1[bad json]",
		`#A1[{"fun": 1}]`,
		`#A1[{"fun": "array", "args": "int"}]`,
		`#A1[{"fun": "array", "kw": []}]`,
		`#A1[1]`,
	}
	for _, ref := range testCases {
		_, err := Parse(ref)
		require.Error(t, err, ref)

		var invalid *InvalidReferenceError
		assert.True(t, errors.As(err, &invalid), ref)
		assert.ErrorIs(t, err, ErrInvalidReference, ref)
	}
}

func TestParseFilterForms(t *testing.T) {
	t.Parallel()

	d, err := Parse(`#A1{"fun": "dict", "key": "lower"}`)
	require.NoError(t, err)
	assert.Equal(t, []FilterSpec{{Name: "dict", Kw: map[string]any{"key": "lower"}}}, d.Filters)

	d, err = Parse(`#A1["full", {"fun": "array", "args": ["float"], "kw": {}}]`)
	require.NoError(t, err)
	assert.Equal(t, []FilterSpec{
		{Name: "full"},
		{Name: "array", Args: []any{"float"}, Kw: map[string]any{}},
	}, d.Filters)
}
