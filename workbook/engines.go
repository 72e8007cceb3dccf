package workbook

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Engine names.
const (
	EngineExcelize = "excelize"
	EngineXlrd     = "xlrd"
	EngineOdf      = "odf"
	EngineCSV      = "csv"
	EngineAuto     = "auto"
)

// DefaultEngine is used for unknown or missing extensions.
const DefaultEngine = EngineAuto

// Extensions maps a lower-case file extension (without dot) to an engine name.
var Extensions = map[string]string{
	"xlsx": EngineExcelize,
	"xlsm": EngineExcelize,
	"xltx": EngineExcelize,
	"xltm": EngineExcelize,
	"xls":  EngineXlrd,
	"odf":  EngineOdf,
	"ods":  EngineOdf,
	"odt":  EngineOdf,
	"csv":  EngineCSV,
	"tsv":  EngineCSV,
	"txt":  EngineCSV,
}

// EngineName returns the engine name for a file path. Overrides, keyed by
// lower-case extension, take precedence over the Extensions table.
func EngineName(path string, overrides map[string]string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if name, ok := overrides[ext]; ok {
		return name
	}
	if name, ok := Extensions[ext]; ok {
		return name
	}
	return DefaultEngine
}

// EngineUnavailableError is returned when no engine is registered under a name.
type EngineUnavailableError struct {
	Name string
	Path string
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("no %q engine registered to read %s", e.Name, e.Path)
}

// Registry maps engine names to engines.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry returns a registry holding the built-in engines. The auto engine
// dispatches through the returned registry, so engines registered later are
// visible to it.
func NewRegistry(csv CSVOptions) *Registry {
	r := &Registry{engines: map[string]Engine{}}
	r.Register(EngineExcelize, Excelize{})
	r.Register(EngineCSV, &CSV{Options: csv})
	r.Register(EngineAuto, &Auto{Registry: r})
	return r
}

// Register binds an engine to a name, replacing any previous binding.
func (r *Registry) Register(name string, engine Engine) {
	r.engines[name] = engine
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, bool) {
	e, ok := r.engines[name]
	return e, ok
}

// Names lists the registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EngineFor selects the engine for path by extension.
func (r *Registry) EngineFor(path string, overrides map[string]string) (Engine, error) {
	name := EngineName(path, overrides)
	engine, ok := r.Get(name)
	if !ok {
		return nil, &EngineUnavailableError{Name: name, Path: path}
	}
	return engine, nil
}
