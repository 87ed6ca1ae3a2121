package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// factoryPropsKey is the section of the factory settings file that holds
// configuration defaults served by the broker.
const factoryPropsKey = "props"

// FactoryDefaults exposes the shipped factory settings file.
// Values live under the "props" section:
//
//	props:
//	  redis: redis://localhost:6379
//	  auth:
//	    ttl: 3600
//
// Keys and nested field names are kept exactly as written in the file.
type FactoryDefaults struct {
	props map[string]interface{}
	file  string
}

// LoadFactoryDefaults reads <path>/<name>.{yaml,yml,json}. A missing file
// yields empty defaults; a malformed one is an error.
func LoadFactoryDefaults(cfg FactoryConfig) (*FactoryDefaults, error) {
	v := viper.New()
	v.SetConfigName(cfg.Name)
	v.AddConfigPath(cfg.Path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read factory settings: %w", err)
		}
		return &FactoryDefaults{props: map[string]interface{}{}}, nil
	}

	// viper folds key case, so it only locates the file here
	file := v.ConfigFileUsed()
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("read factory settings: unsupported format %q", filepath.Ext(file))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read factory settings: %w", err)
	}
	f, err := NewFactoryDefaults(bytes.NewReader(data), strings.TrimPrefix(filepath.Ext(file), "."))
	if err != nil {
		return nil, err
	}
	f.file = file
	return f, nil
}

// NewFactoryDefaults reads factory settings of the given format ("yaml",
// "yml" or "json") from r.
func NewFactoryDefaults(r io.Reader, format string) (*FactoryDefaults, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml", "json":
	default:
		return nil, fmt.Errorf("read factory settings: unsupported format %q", format)
	}

	var doc map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read factory settings: %w", err)
	}

	props := map[string]interface{}{}
	if raw, ok := doc[factoryPropsKey]; ok && raw != nil {
		m, ok := normalizeYAML(raw).(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("read factory settings: %s must be a mapping", factoryPropsKey)
		}
		props = m
	}
	return &FactoryDefaults{props: props}, nil
}

// Lookup returns the factory value for key, if one is defined. A dotted key
// such as "auth.ttl" reaches into nested sections when no top-level key
// matches it exactly. Matching is case-sensitive.
func (f *FactoryDefaults) Lookup(key string) (interface{}, bool) {
	if f == nil || key == "" {
		return nil, false
	}
	if v, ok := f.props[key]; ok {
		return v, true
	}

	var cur interface{} = f.props
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Keys returns the sorted top-level keys of the props section.
func (f *FactoryDefaults) Keys() []string {
	if f == nil {
		return nil
	}
	keys := make([]string, 0, len(f.props))
	for k := range f.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigFile reports the file the defaults were read from, if any.
func (f *FactoryDefaults) ConfigFile() string {
	if f == nil {
		return ""
	}
	return f.file
}

// normalizeYAML turns non-string mapping keys into strings so values can be
// served as JSON.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
