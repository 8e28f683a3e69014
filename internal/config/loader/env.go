package loader

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix string // Environment variable prefix without the underscore (e.g., "PARMINMAX")
}

// NewEnvLoader creates a new environment variable loader.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix}
}

// LoadInto decodes PREFIX_NAME variables into the fields of v, where NAME is
// the upper-cased field name (split on word boundaries when the field has
// split_words:"true"). Pointer fields stay nil when their variable is unset.
func (l *EnvLoader) LoadInto(v any) error {
	if err := envconfig.Process(l.prefix, v); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}
