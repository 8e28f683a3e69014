package loader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct {
	fs FileSystem
}

// NewYAMLLoader creates a YAML loader reading through fsys.
func NewYAMLLoader(fsys FileSystem) *YAMLLoader {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &YAMLLoader{fs: fsys}
}

// LoadInto reads path and decodes it into v. Unknown keys are rejected.
// An empty file decodes to nothing.
func (l *YAMLLoader) LoadInto(path string, v any) error {
	data, err := readFile(l.fs, path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytesReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
