// internal/config/types.go
package config

// Global configuration loaded from config.yaml
type Global struct {
	Service  ServiceConfig  `yaml:"service"`
	Registry RegistryConfig `yaml:"registry"`
	History  HistoryConfig  `yaml:"history"`
	Suggest  SuggestConfig  `yaml:"suggestions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServiceConfig struct {
	LogLevel      string `yaml:"log_level"`
	ListenAddress string `yaml:"listen_address"`
	ListenPort    int    `yaml:"listen_port"`
}

// RegistryConfig selects the entity registry backing store. With a db
// path the registry is SQLite; with only an inventory path lookups are
// served straight from the inventory document.
type RegistryConfig struct {
	Path      string `yaml:"path"`
	Inventory string `yaml:"inventory"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type SuggestConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ModelPath string `yaml:"model_path"`
}

type LoggingConfig struct {
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

// RuleDef is one rule definition loaded from an individual YAML file in
// the rules directory. When and OnlyIf hold the raw phrases; Vars are
// expanded into {{placeholders}} before parsing.
type RuleDef struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Enabled     bool              `yaml:"enabled"`
	When        []string          `yaml:"when"`
	OnlyIf      []string          `yaml:"only_if"`
	Vars        map[string]string `yaml:"vars"`
}
