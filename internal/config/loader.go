package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix recognized for configuration overrides. A variable
// like RAGSUITE_TARGET_MODE=local overrides target.mode.
const EnvPrefix = "RAGSUITE"

// Load reads a configuration file, applies ${VAR} expansion and RAGSUITE_*
// environment overrides, and returns the decoded config with defaults filled
// in. An empty path returns Default() with overrides applied.
func Load(path string) (*Config, error) {
	raw := map[string]any{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		raw, err = parseRawBytes([]byte(expanded), path)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnvOverrides(raw, EnvPrefix, os.Environ())

	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Reload re-reads the configuration from disk. It exists so callers re-read
// explicitly instead of relying on any cached state; Load never caches.
func Reload(path string) (*Config, error) {
	return Load(path)
}

func parseRawBytes(data []byte, pathHint string) (map[string]any, error) {
	ext := strings.ToLower(filepath.Ext(pathHint))
	if ext == ".json" || ext == ".json5" {
		var raw map[string]any
		if err := json5.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			raw = map[string]any{}
		}
		return raw, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decodeRawConfig(raw map[string]any) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serialize config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(&cfg); err != nil {
		if err.Error() == "EOF" {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies PREFIX_SECTION_KEY=value overrides onto the raw
// map with automatic type coercion (bool, int, float, then string). Key parts
// are matched longest-first at each level so multi-word keys like api_url
// resolve correctly: RAGSUITE_TARGET_API_URL overrides target.api_url.
func ApplyEnvOverrides(raw map[string]any, prefix string, environ []string) {
	marker := prefix + "_"
	for _, entry := range environ {
		eq := strings.IndexByte(entry, '=')
		if eq <= 0 {
			continue
		}
		name, value := entry[:eq], entry[eq+1:]
		if !strings.HasPrefix(name, marker) {
			continue
		}
		parts := strings.Split(strings.ToLower(name[len(marker):]), "_")
		if len(parts) < 2 {
			continue
		}
		applyTopOverride(raw, parts, ParseValue(value))
	}
}

// sections maps each root config section to its nested subsections. Section
// names may contain underscores (test_generation), so overrides are split by
// matching the longest known section prefix rather than on the first
// underscore.
var sections = map[string][]string{
	"llm":             nil,
	"target":          nil,
	"rag":             {"ragengine", "qdrant"},
	"evaluation":      nil,
	"test_generation": nil,
	"logging":         nil,
	"tracing":         nil,
}

func applyTopOverride(raw map[string]any, parts []string, value any) {
	for i := len(parts) - 1; i >= 1; i-- {
		name := strings.Join(parts[:i], "_")
		subs, known := sections[name]
		if !known {
			continue
		}
		section := childMap(raw, name)
		rest := parts[i:]
		for _, sub := range subs {
			if len(rest) >= 2 && rest[0] == sub {
				childMap(section, sub)[strings.Join(rest[1:], "_")] = value
				return
			}
		}
		section[strings.Join(rest, "_")] = value
		return
	}
}

func childMap(m map[string]any, key string) map[string]any {
	if child, ok := m[key].(map[string]any); ok {
		return child
	}
	child := map[string]any{}
	m[key] = child
	return child
}

// ParseValue coerces an override string: bool, then int, then float, then the
// raw string.
func ParseValue(value string) any {
	switch strings.ToLower(value) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
