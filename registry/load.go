package registry

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/RAKUDEJI/wacli/errors"
)

// Format is a descriptor file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// Load reads, parses and validates a descriptor file.
func Load(path string) (*Registry, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Value(path).
			Detail("unknown descriptor format %q (want .yaml, .yml, .json or .toml)", filepath.Ext(path)).
			Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ParseFailed(path, err)
	}
	reg, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Parse decodes descriptors without validating them. Unknown keys are
// rejected. An empty document is an empty registry.
func Parse(data []byte, format Format) (*Registry, error) {
	reg := &Registry{}
	switch format {
	case FormatYAML, FormatJSON:
		// JSON documents are valid YAML.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(reg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.ParseFailed(string(format)+" descriptors", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(reg); err != nil {
			return nil, errors.ParseFailed("toml descriptors", err)
		}
	default:
		return nil, errors.Unsupported(errors.PhaseParse, "descriptor format "+string(format))
	}
	return reg, nil
}
