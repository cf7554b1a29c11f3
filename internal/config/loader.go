// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadGlobal loads the global configuration from a YAML file
func LoadGlobal(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Global
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyGlobalDefaults(&cfg)
	return &cfg, nil
}

// LoadRuleDef loads a single rule definition from a YAML file
func LoadRuleDef(path string) (*RuleDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var def RuleDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	return &def, nil
}

// LoadRuleDefsDir loads every .yaml/.yml rule definition in a directory,
// in filename order. Each definition is validated and rule names must be
// unique across the directory.
func LoadRuleDefsDir(dir string) ([]*RuleDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory: %w", err)
	}

	var defs []*RuleDef
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		def, err := LoadRuleDef(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading rule %s: %w", entry.Name(), err)
		}
		if err := ValidateRuleDef(def); err != nil {
			return nil, fmt.Errorf("rule %s: %w", entry.Name(), err)
		}
		if prev, ok := seen[def.Name]; ok {
			return nil, fmt.Errorf("rule %s: duplicate rule name %q (already defined in %s)", entry.Name(), def.Name, prev)
		}
		seen[def.Name] = entry.Name()
		defs = append(defs, def)
	}

	return defs, nil
}

// ValidateRuleDef checks the structural requirements of a rule
// definition. Phrase-level problems are the parser's business and are
// not checked here.
func ValidateRuleDef(def *RuleDef) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(def.When) == 0 {
		return fmt.Errorf("rule %q has no when phrases", def.Name)
	}
	return nil
}

func applyGlobalDefaults(cfg *Global) {
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "info"
	}
	if cfg.Service.ListenPort == 0 {
		cfg.Service.ListenPort = 9876
	}
	if cfg.Service.ListenAddress == "" {
		cfg.Service.ListenAddress = "127.0.0.1"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.History.Enabled && cfg.History.RetentionDays <= 0 {
		cfg.History.RetentionDays = 90
	}
}
