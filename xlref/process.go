package xlref

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yamitzky/xlref-go/internal/errors"
)

// Source is one batch input: a literal reference or a decoded JSON document,
// with the directory relative file paths in it resolve against. An empty Dir
// means Options.CurrentDir.
type Source struct {
	Value any
	Dir   string
}

// LoadJSON decodes reference documents. References inside a document resolve
// relative to the document's directory.
func LoadJSON(paths ...string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.WithStackTraceAndPrefix(err, "decoding %s", path)
		}
		sources = append(sources, Source{Value: v, Dir: filepath.Dir(path)})
	}
	return sources, nil
}

// MergeReferences puts literal references first, then file documents.
func MergeReferences(refs []string, files []Source) []Source {
	out := make([]Source, 0, len(refs)+len(files))
	for _, ref := range refs {
		out = append(out, Source{Value: ref})
	}
	return append(out, files...)
}

// ReadReferences resolves every string leaf of every source, recursing into
// lists and into both keys and values of objects. All sources share one
// cache. Strings that are not references are kept as they are; any other
// failure aborts the batch.
func ReadReferences(sources []Source, opts *Options) (data []any, err error) {
	cache := NewCache()
	defer func() {
		if cerr := cache.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	base := opts.withDefaults()
	data = make([]any, 0, len(sources))
	for _, src := range sources {
		o := *base
		if src.Dir != "" {
			o.CurrentDir = src.Dir
		}
		v, err := readValue(src.Value, cache, &o)
		if err != nil {
			return nil, err
		}
		data = append(data, v)
	}
	return data, nil
}

func readValue(v any, cache *Cache, opts *Options) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			resolved, err := readValue(item, cache, opts)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		// Keys are visited in sorted order; when two resolve to the same
		// string the later one wins.
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(x))
		for _, k := range keys {
			item := x[k]
			key, err := readValue(k, cache, opts)
			if err != nil {
				return nil, err
			}
			resolved, err := readValue(item, cache, opts)
			if err != nil {
				return nil, err
			}
			out[mappingKey(key)] = resolved
		}
		return out, nil
	case string:
		return readReference(x, cache, opts)
	}
	return v, nil
}

func readReference(text string, cache *Cache, opts *Options) (any, error) {
	r, err := New(text, cache, opts)
	if err == nil {
		var out any
		if out, err = r.Values(); err == nil {
			return out, nil
		}
	}
	if errors.Is(err, ErrInvalidReference) {
		opts.Logger.WithField("value", text).Debug("not a reference, kept as is")
		return text, nil
	}
	return nil, err
}

// Save writes data as JSON, or as MessagePack when path ends in .msgpack or
// .mp. Missing parent directories are created.
func Save(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStackTrace(err)
	}

	var (
		out []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		out, err = msgpack.Marshal(data)
	default:
		out, err = json.Marshal(data)
	}
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "encoding %s", path)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// MarshalJSON writes a failure as {"error": message}.
func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"error": f.Error()})
}

// EncodeMsgpack writes a failure as {"error": message}.
func (f *Failure) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(map[string]string{"error": f.Error()})
}

var (
	_ json.Marshaler        = (*Failure)(nil)
	_ msgpack.CustomEncoder = (*Failure)(nil)
)
