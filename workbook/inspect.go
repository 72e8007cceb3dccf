package workbook

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/yamitzky/xlref-go/internal/errors"
)

// FileFormatDescriptions provides descriptions of the file types that can be inspected.
var FileFormatDescriptions = map[string]string{
	"xls":  "Excel xls",
	"xlsb": "Excel 2007 xlsb file",
	"xlsx": "Excel xlsx file",
	"ods":  "Openoffice.org ODS file",
	"zip":  "Unknown ZIP file",
	"":     "Unknown file type",
}

// xlsSignature is the magic cookie that should appear in the first 8 bytes of an XLS file.
var xlsSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var zipSignature = []byte("PK\x03\x04")

const peekSize = 8

// InspectFormat inspects the content at the supplied path or the bytes content provided
// and returns the file's type as a string, or empty string if it cannot be determined.
// A leading ~ in path is expanded to the home directory.
//
// The return value can always be looked up in FileFormatDescriptions.
func InspectFormat(path string, content []byte) (string, error) {
	var peek []byte

	if content != nil {
		peek = content[:min(len(content), peekSize)]
	} else {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return "", errors.WithStackTrace(err)
		}
		path = expanded

		f, err := os.Open(path)
		if err != nil {
			return "", errors.WithStackTrace(err)
		}
		defer f.Close()

		peek = make([]byte, peekSize)
		n, err := f.Read(peek)
		if err != nil && err != io.EOF {
			return "", errors.WithStackTrace(err)
		}
		peek = peek[:n]
	}

	if len(peek) < peekSize {
		return "", nil
	}

	if bytes.HasPrefix(peek, xlsSignature) {
		return "xls", nil
	}

	if !bytes.HasPrefix(peek, zipSignature) {
		return "", nil
	}

	var zf *zip.Reader
	if content != nil {
		r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			return "", errors.WithStackTrace(err)
		}
		zf = r
	} else {
		r, err := zip.OpenReader(path)
		if err != nil {
			return "", errors.WithStackTrace(err)
		}
		defer r.Close()
		zf = &r.Reader
	}

	// Some third party writers use back slashes and lower case member names.
	componentNames := make(map[string]string)
	for _, member := range zf.File {
		componentNames[strings.ToLower(strings.ReplaceAll(member.Name, "\\", "/"))] = member.Name
	}

	if _, ok := componentNames["xl/workbook.xml"]; ok {
		return "xlsx", nil
	}
	if _, ok := componentNames["xl/workbook.bin"]; ok {
		return "xlsb", nil
	}
	if _, ok := componentNames["content.xml"]; ok {
		return "ods", nil
	}
	return "zip", nil
}

// Auto picks an engine by sniffing the file content. It is the default
// engine for files whose extension is missing or unknown.
type Auto struct {
	Registry *Registry
}

// engineForFormat maps an InspectFormat result to an engine name.
var engineForFormat = map[string]string{
	"xlsx": EngineExcelize,
	"xls":  EngineXlrd,
	"ods":  EngineOdf,
	"":     EngineCSV,
}

// Open sniffs the file and delegates to the matching engine.
func (a *Auto) Open(path string) (Workbook, error) {
	format, err := InspectFormat(path, nil)
	if err != nil {
		return nil, err
	}
	name, ok := engineForFormat[format]
	if !ok {
		return nil, errors.Errorf("%s: %s; not supported", path, FileFormatDescriptions[format])
	}
	engine, ok := a.Registry.Get(name)
	if !ok {
		return nil, &EngineUnavailableError{Name: name, Path: path}
	}
	wb, err := engine.Open(path)
	if err != nil {
		return nil, err
	}
	return &sniffed{Workbook: wb, engine: engine}, nil
}

// Parse delegates to the engine chosen by Open.
func (a *Auto) Parse(wb Workbook, sheet string) (Matrix, error) {
	s, ok := wb.(*sniffed)
	if !ok {
		return nil, errors.Errorf("workbook %s was not opened by the auto engine", wb.Path())
	}
	return s.engine.Parse(s.Workbook, sheet)
}

type sniffed struct {
	Workbook
	engine Engine
}
