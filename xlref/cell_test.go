package xlref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNamesRoundTrip(t *testing.T) {
	t.Parallel()

	for colx := 0; colx <= 701; colx++ {
		name := NumToCol(colx)
		got, err := ColToNum(name)
		require.NoError(t, err, name)
		require.Equal(t, colx, got, name)
	}
}

func TestColumnNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		colx int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"BA", 52},
		{"ZZ", 701},
		{"AAA", 702},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.name, NumToCol(tc.colx))
		got, err := ColToNum(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.colx, got)
	}

	lower, err := ColToNum("ab")
	require.NoError(t, err)
	assert.Equal(t, 27, lower)
}

func TestColToNumRejectsBadNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "A1", "-", "AAAAAAAAAAAAA"} {
		_, err := ColToNum(name)
		assert.Error(t, err, name)
	}
}

func TestRangeString(t *testing.T) {
	t.Parallel()

	rng := NewRange(Cell{Row: 1, Col: 2}, Cell{Row: 5, Col: 6})
	assert.Equal(t, "C2:G6", rng.String())

	swapped := NewRange(Cell{Row: 5, Col: 2}, Cell{Row: 1, Col: 6})
	assert.Equal(t, rng, swapped)
	assert.Equal(t, Cell{Row: 1, Col: 2}, swapped.Start())
	assert.Equal(t, Cell{Row: 5, Col: 6}, swapped.End())
}

func TestParseRow(t *testing.T) {
	t.Parallel()

	c, err := parseRow("1")
	require.NoError(t, err)
	assert.Equal(t, At(0), c)

	c, err = parseRow("_")
	require.NoError(t, err)
	assert.True(t, c.IsSymbol())
	assert.Equal(t, Last, c.Symbol)

	_, err = parseRow("0")
	assert.Error(t, err)
}
