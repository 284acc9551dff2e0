package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/curateml/curate/pkg/curerrors"
)

// Load reads a YAML file into cfg, substituting ${VAR} references with
// environment variable values before decoding.
func Load(path string, cfg interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the caller's --config flag
	if err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConfig, "cannot read config file")
	}

	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConfig, "cannot parse config YAML")
	}
	return nil
}

// Save writes cfg to a YAML file.
func Save(path string, cfg interface{}) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return curerrors.Wrap(err, curerrors.ErrorTypeConfig, "cannot encode config YAML")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return curerrors.Wrap(err, curerrors.ErrorTypeConfig, "cannot write config file")
	}
	return nil
}

// expandEnv replaces every ${VAR} reference with the value of the named
// environment variable. Unset variables expand to the empty string.
func expandEnv(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start < 0 {
			break
		}
		rest := content[start+2:]
		end := strings.Index(rest, "}")
		if end < 0 {
			break
		}
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(rest[:end]))
		content = rest[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
