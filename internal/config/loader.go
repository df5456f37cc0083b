package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration made of the default values only.
func Default() *Config {
	cfg := &Config{}
	if err := walk(reflect.ValueOf(cfg).Elem(), applyDefault); err != nil {
		// default tags are constants of this package
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}

	return cfg
}

// Load reads the configuration. path may be empty, in which case only the defaults and the
// environment are used.
func Load(path string) (*Config, error) {
	var data []byte

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		data = raw
	}

	return load(data, os.LookupEnv)
}

func load(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if len(data) > 0 {
		err := yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse config file")
		}
	}

	err := walk(reflect.ValueOf(cfg).Elem(), func(field reflect.StructField, v reflect.Value) error {
		name := field.Tag.Get("env")
		if name == "" {
			return nil
		}

		value, ok := lookup(name)
		if !ok || value == "" {
			return nil
		}

		if err := setField(v, value); err != nil {
			return errors.Wrapf(err, "invalid value for %s=%q", name, value)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "config load")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefault(field reflect.StructField, v reflect.Value) error {
	value, ok := field.Tag.Lookup("default")
	if !ok {
		return nil
	}

	return errors.Wrapf(setField(v, value), "invalid default for %s", field.Name)
}

// walk calls fn on every settable leaf field, recursing into nested structs.
func walk(v reflect.Value, fn func(reflect.StructField, reflect.Value) error) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := walk(fieldVal, fn); err != nil {
				return err
			}

			continue
		}

		if err := fn(field, fieldVal); err != nil {
			return err
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return errors.Wrap(err, "invalid duration")
			}
			field.Set(reflect.ValueOf(d))

			return nil
		}

		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid integer")
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrap(err, "invalid boolean")
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errors.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return errors.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is usable and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Root == "" {
		errs = append(errs, "root is required")
	}
	if c.Dataset == "" {
		errs = append(errs, "dataset is required")
	}
	if strings.ContainsAny(c.Dataset, `/\`) || c.Dataset == "." || c.Dataset == ".." {
		errs = append(errs, fmt.Sprintf("dataset %q must not contain path separators", c.Dataset))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers (%d) must be positive", c.Workers))
	}

	if !strings.Contains(c.Fetch.URLTemplate, "{dataset}") {
		errs = append(errs, "fetch.url_template must contain {dataset}")
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, "fetch.timeout must be non-negative")
	}

	switch c.Decompress.Backend {
	case BackendExec:
		if len(c.Decompress.Command) == 0 {
			errs = append(errs, "decompress.command is required by the exec backend")
		}
	case BackendGzip:
	default:
		errs = append(errs, fmt.Sprintf("decompress.backend %q must be %s or %s", c.Decompress.Backend, BackendExec, BackendGzip))
	}
	if !strings.HasPrefix(c.Decompress.Suffix, ".") {
		errs = append(errs, "decompress.suffix must start with a dot")
	}

	if len(c.Schema.Sections) == 0 {
		errs = append(errs, "schema.sections must not be empty")
	}
	if c.Schema.FinalSection != FinalSectionSame && c.Schema.FinalSection != FinalSectionInfer {
		errs = append(errs, fmt.Sprintf("schema.final_section %q must be %s or %s", c.Schema.FinalSection, FinalSectionSame, FinalSectionInfer))
	}
	if !strings.HasPrefix(c.Schema.TabularSuffix, ".") {
		errs = append(errs, "schema.tabular_suffix must start with a dot")
	}
	if c.Schema.Trim.Table == "" || c.Schema.Trim.Suffix == "" {
		errs = append(errs, "schema.trim.table and schema.trim.suffix are required")
	}
	if !contains(c.Schema.Sections, c.Schema.Trim.Table) {
		errs = append(errs, fmt.Sprintf("schema.trim.table %q must be one of schema.sections", c.Schema.Trim.Table))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not a level", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Wrap(ErrInvalid, strings.Join(errs, "; "))
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}

	return false
}
