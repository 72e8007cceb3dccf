package xlref

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestReadReferencesSharesCache(t *testing.T) {
	t.Parallel()

	opts, mem := memoryOptions(t)
	sources := MergeReferences([]string{"book.xlsx#nums!A1", "book.xlsx#nums!B2"}, nil)

	data, err := ReadReferences(sources, opts)
	require.NoError(t, err)
	assert.Equal(t, []any{[][]any{{1.0}}, [][]any{{3.0}}}, data)
	assert.Equal(t, 1, mem.Opens(testBook))
	assert.Equal(t, 1, mem.Parses(testBook))
}

func TestReadReferencesWalksDocuments(t *testing.T) {
	t.Parallel()

	opts, _ := memoryOptions(t)
	doc := map[string]any{
		`book.xlsx#dict!A1["item"]`: []any{"book.xlsx#nums!C1", "text", 3.0, true},
		"plain":                     nil,
	}

	data, err := ReadReferences([]Source{{Value: doc, Dir: testDir}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{
		"A":     []any{[][]any{{2.0}}, "text", 3.0, true},
		"plain": nil,
	}}, data)
}

func TestReadReferencesCollidingKeys(t *testing.T) {
	t.Parallel()

	opts, _ := memoryOptions(t)
	// Both keys render as "1"; the reference sorts after the literal.
	doc := map[string]any{
		"1":                         "literal",
		`book.xlsx#nums!A1["item"]`: "resolved",
	}

	for i := 0; i < 20; i++ {
		data, err := ReadReferences([]Source{{Value: doc, Dir: testDir}}, opts)
		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"1": "resolved"}}, data)
	}
}

func TestReadReferencesResolvesAgainstSourceDir(t *testing.T) {
	t.Parallel()

	opts, _ := memoryOptions(t)
	opts.CurrentDir = filepath.FromSlash("/elsewhere")

	data, err := ReadReferences([]Source{{Value: "book.xlsx#nums!C2", Dir: testDir}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []any{[][]any{{4.0}}}, data)

	_, err = ReadReferences(MergeReferences([]string{"book.xlsx#nums!C2"}, nil), opts)
	assert.Error(t, err)
}

func TestReadReferencesAbortsOnFailure(t *testing.T) {
	t.Parallel()

	opts, _ := memoryOptions(t)
	_, err := ReadReferences(MergeReferences([]string{"book.xlsx#nums!A1", "book.xlsx#missing!A1"}, nil), opts)
	var notFound *SheetNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMergeReferencesOrder(t *testing.T) {
	t.Parallel()

	files := []Source{{Value: "from file", Dir: "d"}}
	got := MergeReferences([]string{"a", "b"}, files)
	assert.Equal(t, []Source{{Value: "a"}, {Value: "b"}, {Value: "from file", Dir: "d"}}, got)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "refs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": ["#A1", 1]}`), 0o644))

	sources, err := LoadJSON(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, dir, sources[0].Dir)
	assert.Equal(t, map[string]any{"x": []any{"#A1", 1.0}}, sources[0].Value)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadJSON(bad)
	assert.Error(t, err)

	_, err = LoadJSON(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSaveJSONWithFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "out.json")
	data := []any{
		[][]int64{{1, 2}},
		[]any{&Failure{Err: &NoFullCellError{Cell: Cell{Row: 1, Col: 2}, Move: "DR"}}},
	}
	require.NoError(t, Save(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []any{
		[]any{[]any{1.0, 2.0}},
		[]any{map[string]any{"error": "Full Cell cannot be found from (1, 2) with movement DR!"}},
	}, got)
}

func TestSaveMsgpack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.msgpack")
	data := []any{
		map[string]any{"a": 1.5},
		&Failure{Err: ErrNoFullCell},
	}
	require.NoError(t, Save(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []any
	require.NoError(t, msgpack.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"a": 1.5}, got[0])
	assert.Equal(t, map[string]any{"error": ErrNoFullCell.Error()}, got[1])
}
