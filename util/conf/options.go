package conf

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ConfigurationError reports a missing or invalid option.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration option %s: %s", e.Option, e.Reason)
}

// Defaulter is implemented by option structs that have default values.
type Defaulter interface {
	SetDefaults()
}

// Validator is implemented by option structs that check their values.
type Validator interface {
	Validate() error
}

// Load fills options from YAML data. Defaults are set first so options
// absent from the data keep them; unknown keys are an error.
func Load(data []byte, options interface{}) error {
	if d, ok := options.(Defaulter); ok {
		d.SetDefaults()
	}
	if err := yaml.UnmarshalStrict(data, options); err != nil {
		return &ConfigurationError{Option: "(file)", Reason: err.Error()}
	}
	if v, ok := options.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func LoadFile(filename string, options interface{}) error {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "failed reading configuration %s", filename)
	}
	if err := Load(data, options); err != nil {
		return errors.Wrapf(err, "in %s", filename)
	}
	return nil
}

// Dump renders options as YAML, for logging the effective configuration.
func Dump(options interface{}) string {
	data, err := yaml.Marshal(options)
	if err != nil {
		return fmt.Sprintf("(unprintable options: %v)", err)
	}
	return string(data)
}
