package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is a settings file format.
type Format int

// Formats.
const (
	FormatYAML Format = iota
	FormatTOML
	FormatJSONC
)

// ErrUnknownFormat is returned for an unsupported file extension.
var ErrUnknownFormat = errors.New("unknown config format")

// LoadError describes a settings file that could not be loaded.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads settings from path on top of the defaults.
func Load(path string) (Settings, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Settings{}, &LoadError{File: path, Message: "unsupported file", Cause: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	s, err := Parse(data, format)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return Settings{}, le
		}
		return Settings{}, &LoadError{File: path, Message: err.Error()}
	}
	return s, nil
}

// Parse decodes settings in the given format on top of the defaults and
// validates them.
func Parse(data []byte, format Format) (Settings, error) {
	s := Default()

	var err error
	switch format {
	case FormatYAML:
		err = parseYAML(data, &s)
	case FormatTOML:
		err = parseTOML(data, &s)
	case FormatJSONC:
		err = parseJSONC(data, &s)
	default:
		err = ErrUnknownFormat
	}
	if err != nil {
		return Settings{}, &LoadError{Message: "failed to parse settings", Cause: err}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, &LoadError{Message: "invalid settings", Cause: err}
	}
	return s, nil
}

func parseYAML(data []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseTOML(data []byte, s *Settings) error {
	meta, err := toml.Decode(string(data), s)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: %q", ErrUnknownKey, undecoded[0].String())
	}
	return nil
}

func parseJSONC(data []byte, s *Settings) error {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()
	return dec.Decode(s)
}
