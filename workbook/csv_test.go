package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestCSVEngine(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data.csv", []byte("name,1,TRUE\n,2.5,\n\"quoted, text\"\n"))
	engine := &CSV{}

	wb, err := engine.Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"data"}, wb.SheetNames())
	assert.Equal(t, path, wb.Path())

	m, err := engine.Parse(wb, "data")
	require.NoError(t, err)
	assert.Equal(t, Matrix{
		{"name", 1.0, true},
		{nil, 2.5, nil},
		{"quoted, text"},
	}, m)
	require.NoError(t, wb.Close())
}

func TestCSVEngineOptions(t *testing.T) {
	t.Parallel()

	tsv := writeFile(t, "data.tsv", []byte("a\tb\n# note\n1\t2\n"))
	engine := &CSV{Options: CSVOptions{Comment: "#"}}
	wb, err := engine.Open(tsv)
	require.NoError(t, err)
	m, err := engine.Parse(wb, "data")
	require.NoError(t, err)
	assert.Equal(t, Matrix{{"a", "b"}, {1.0, 2.0}}, m)

	semi := writeFile(t, "data.txt", []byte("x;y\n"))
	engine = &CSV{Options: CSVOptions{Delimiter: ";"}}
	wb, err = engine.Open(semi)
	require.NoError(t, err)
	m, err = engine.Parse(wb, "data")
	require.NoError(t, err)
	assert.Equal(t, Matrix{{"x", "y"}}, m)
}

func TestCSVEngineEncoding(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"windows-1252", "latin1", "cp850"} {
		enc, err := LookupEncoding(name)
		require.NoError(t, err, name)

		raw, err := enc.NewEncoder().Bytes([]byte("café,ñ\n"))
		require.NoError(t, err, name)
		path := writeFile(t, "legacy.csv", raw)

		engine := &CSV{Options: CSVOptions{Encoding: name}}
		wb, err := engine.Open(path)
		require.NoError(t, err, name)
		m, err := engine.Parse(wb, "legacy")
		require.NoError(t, err, name)
		assert.Equal(t, Matrix{{"café", "ñ"}}, m, name)
	}

	enc, err := LookupEncoding("CP437")
	require.NoError(t, err)
	assert.Equal(t, charmap.CodePage437, enc)

	_, err = LookupEncoding("no-such-charset")
	assert.Error(t, err)
}

func TestCSVEngineByteOrderMark(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "excel.csv", []byte("\xef\xbb\xbfa,b\n1,2\n"))
	for _, encoding := range []string{"", "latin1"} {
		engine := &CSV{Options: CSVOptions{Encoding: encoding}}
		wb, err := engine.Open(path)
		require.NoError(t, err, encoding)
		m, err := engine.Parse(wb, "excel")
		require.NoError(t, err, encoding)
		assert.Equal(t, Matrix{{"a", "b"}, {1.0, 2.0}}, m, encoding)
	}
}

func TestCSVEngineMissingFile(t *testing.T) {
	t.Parallel()

	_, err := (&CSV{}).Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = (&CSV{}).Open(t.TempDir())
	assert.Error(t, err)
}
