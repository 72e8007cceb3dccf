package xlref

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamitzky/xlref-go/workbook"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "xlref.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
current_dir = "/srv/books"
max_depth = 8
log_level = "debug"

[engines]
dat = "csv"

[csv]
delimiter = ";"
encoding = "latin1"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		CurrentDir: "/srv/books",
		MaxDepth:   8,
		LogLevel:   "debug",
		Engines:    map[string]string{"dat": "csv"},
		CSV:        workbook.CSVOptions{Delimiter: ";", Encoding: "latin1"},
	}, cfg)

	logger := logrus.New()
	opts := cfg.Options(logger)
	assert.Equal(t, "/srv/books", opts.CurrentDir)
	assert.Equal(t, 8, opts.MaxDepth)
	assert.Equal(t, cfg.Engines, opts.Extensions)
	assert.Same(t, logger, opts.Logger)

	engine, err := opts.Engines.EngineFor("/srv/books/x.dat", opts.Extensions)
	require.NoError(t, err)
	assert.Equal(t, &workbook.CSV{Options: cfg.CSV}, engine)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "max_depth = "))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "max_dept = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_dept")

	_, err = LoadConfig(writeConfig(t, "[csv]\nencoding = \"klingon\"\n"))
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	t.Parallel()

	var nilOpts *Options
	opts := nilOpts.withDefaults()
	assert.Equal(t, ".", opts.CurrentDir)
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
	assert.Same(t, DefaultRegistry, opts.Filters)
	assert.Same(t, logrus.StandardLogger(), opts.Logger)
	require.NotNil(t, opts.Engines)
	assert.Equal(t, []string{workbook.EngineAuto, workbook.EngineCSV, workbook.EngineExcelize}, opts.Engines.Names())

	given := &Options{CurrentDir: "/x", MaxDepth: 3}
	filled := given.withDefaults()
	assert.Equal(t, "/x", filled.CurrentDir)
	assert.Equal(t, 3, filled.MaxDepth)
	assert.Nil(t, given.Filters, "the receiver is left untouched")
}
