package loader

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct {
	fs FileSystem
}

// NewTOMLLoader creates a TOML loader reading through fsys.
func NewTOMLLoader(fsys FileSystem) *TOMLLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &TOMLLoader{fs: fsys}
}

// LoadInto reads path and decodes it into v. Unknown keys are rejected so
// that typos in a config file do not go unnoticed.
func (l *TOMLLoader) LoadInto(path string, v any) error {
	data, err := readFile(l.fs, path)
	if err != nil {
		return err
	}
	return l.parse(path, data, v)
}

func (l *TOMLLoader) parse(source string, data []byte, v any) error {
	dec := toml.NewDecoder(bytesReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			pe.Line, pe.Column = decodeErr.Position()
		}
		return pe
	}
	return nil
}
