// cmd/rulephrase/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/logging"
	"github.com/colebrumley/rulephrase/internal/phrase"
	"github.com/colebrumley/rulephrase/internal/registry"
	"github.com/colebrumley/rulephrase/internal/rulebook"
	"github.com/colebrumley/rulephrase/internal/suggest"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir = "/etc/rulephrase"
	defaultDataDir   = "/var/lib/rulephrase"
	defaultLogsDir   = "/var/log/rulephrase"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = cmdInit()
	case "list":
		err = cmdList()
	case "validate":
		err = cmdValidate(args)
	case "parse":
		err = cmdParse(args)
	case "items":
		err = cmdItems(args)
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs(args)
	case "version":
		fmt.Println("rulephrase", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rulephrase - Natural-language rule phrase compiler

Usage: rulephrase <command> [options]

Commands:
  init                              Initialize configuration directories
  list                              List all rules and their validity
  validate [rule]                   Compile rules and report problems
  parse trigger|condition <phrase>  Parse a single phrase
  items import [inventory]          Import the item inventory into the registry
  items search <query>              Search registered items
  status                            Show daemon status
  logs [-f]                         View daemon logs
  version                           Print the version`)
}

func configPath() string {
	if p := os.Getenv("RULEPHRASE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultConfigDir, "config.yaml")
}

func rulesDir() string {
	if p := os.Getenv("RULEPHRASE_RULES_DIR"); p != "" {
		return p
	}
	return filepath.Join(defaultConfigDir, "rules")
}

func loadConfig() (*config.Global, error) {
	cfg, err := config.LoadGlobal(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config (run 'rulephrase init' first?): %w", err)
	}
	return cfg, nil
}

// discardLogger suppresses the builder's per-phrase warnings; list and
// validate report problems themselves.
func discardLogger() *slog.Logger {
	return logging.NewLogger("text", "error", io.Discard)
}

// newParsers builds the trigger and condition parsers over the
// configured registry. The registry is opened lazily, so commands whose
// phrases never reference an entity work without one.
func newParsers(cfg *config.Global) (when, onlyIf *phrase.Parser, closer func()) {
	var db *registry.DB
	reg := registry.Lazy(func() (registry.Registry, error) {
		switch {
		case cfg.Registry.Path != "":
			opened, err := registry.Open(cfg.Registry.Path)
			if err != nil {
				return nil, err
			}
			db = opened
			return opened, nil
		case cfg.Registry.Inventory != "":
			inv, err := registry.LoadInventory(cfg.Registry.Inventory)
			if err != nil {
				return nil, err
			}
			return registry.NewStatic(inv), nil
		default:
			return nil, fmt.Errorf("no registry configured: set registry.path or registry.inventory in %s", configPath())
		}
	})
	closer = func() {
		if db != nil {
			db.Close()
		}
	}
	return phrase.NewWhenParser(reg), phrase.NewOnlyIfParser(reg), closer
}

const sampleInventory = `# Items, things, and channels that rule phrases may reference.
items:
  - name: Porch_Light
    kind: Switch
    label: Porch lantern
  - name: Kitchen_Light
    kind: Switch
    label: Kitchen ceiling light
  - name: gLights
    kind: Group
    label: All lights
    members: [Porch_Light, Kitchen_Light]
things: []
channels: []
`

const sampleRule = `name: porch-light-evening
description: Porch light follows the evening schedule
enabled: true
when:
  - Item {{light}} changed to ON
  - Time is midnight
only_if:
  - Time 16:00 to 23:59
vars:
  light: Porch_Light
`

func cmdInit() error {
	dirs := []string{
		defaultConfigDir,
		rulesDir(),
		defaultDataDir,
		defaultLogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		fmt.Printf("Created %s\n", dir)
	}

	// Rule files feed the parser, keep the directory owner-only
	if err := os.Chmod(rulesDir(), 0700); err != nil {
		return fmt.Errorf("setting rules directory permissions: %w", err)
	}

	cfgPath := configPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		defaultConfig := config.Global{
			Service: config.ServiceConfig{
				LogLevel:      "info",
				ListenAddress: "127.0.0.1",
				ListenPort:    9876,
			},
			Registry: config.RegistryConfig{
				Path:      filepath.Join(defaultDataDir, "registry.db"),
				Inventory: filepath.Join(defaultConfigDir, "inventory.yaml"),
			},
			History: config.HistoryConfig{
				Enabled:       true,
				Path:          filepath.Join(defaultDataDir, "history.db"),
				RetentionDays: 90,
			},
			Logging: config.LoggingConfig{
				Format: "json",
			},
		}

		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", cfgPath)
	}

	invPath := filepath.Join(defaultConfigDir, "inventory.yaml")
	if _, err := os.Stat(invPath); os.IsNotExist(err) {
		if err := os.WriteFile(invPath, []byte(sampleInventory), 0644); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", invPath)
	}

	rulePath := filepath.Join(rulesDir(), "porch-light-evening.yaml")
	if _, err := os.Stat(rulePath); os.IsNotExist(err) {
		if err := os.WriteFile(rulePath, []byte(sampleRule), 0600); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", rulePath)
	}

	fmt.Println("\nInitialization complete. Import the inventory with: rulephrase items import")
	return nil
}

func cmdList() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	defs, err := config.LoadRuleDefsDir(rulesDir())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Println("No rules found")
		return nil
	}

	when, onlyIf, closeReg := newParsers(cfg)
	defer closeReg()

	builder := rulebook.NewBuilder(when, onlyIf, discardLogger())
	report := builder.CompileAll(defs)

	fmt.Printf("%-24s %-8s %-8s %-9s %s\n", "NAME", "ENABLED", "VALID", "TRIGGERS", "DESCRIPTION")
	fmt.Println(strings.Repeat("-", 78))

	for _, rule := range report.Rules {
		enabled := "yes"
		if !rule.Enabled {
			enabled = "no"
		}
		valid := "yes"
		if !rule.Valid() {
			valid = "NO"
		}
		desc := rule.Description
		if len(desc) > 30 {
			desc = desc[:27] + "..."
		}
		fmt.Printf("%-24s %-8s %-8s %-9d %s\n", rule.Name, enabled, valid, len(rule.Triggers), desc)
	}

	return nil
}

func cmdValidate(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	defs, err := config.LoadRuleDefsDir(rulesDir())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		var filtered []*config.RuleDef
		for _, def := range defs {
			if def.Name == args[0] {
				filtered = append(filtered, def)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("rule %q not found in %s", args[0], rulesDir())
		}
		defs = filtered
	}

	when, onlyIf, closeReg := newParsers(cfg)
	defer closeReg()

	builder := rulebook.NewBuilder(when, onlyIf, discardLogger())
	report := builder.CompileAll(defs)

	for _, rule := range report.Rules {
		if rule.Valid() {
			fmt.Printf("ok    %s\n", rule.Name)
			continue
		}
		fmt.Printf("FAIL  %s\n", rule.Name)
		for _, e := range rule.Problems() {
			fmt.Printf("      %s: %v\n", e.Phrase, e.Err)
		}
	}

	fmt.Printf("\n%d rules, %d valid, %d invalid\n", report.Total(), report.Valid(), report.Invalid())
	if report.Invalid() > 0 {
		return fmt.Errorf("%d rule(s) failed validation", report.Invalid())
	}
	return nil
}

func cmdParse(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: rulephrase parse trigger|condition <phrase>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	when, onlyIf, closeReg := newParsers(cfg)
	defer closeReg()

	p := when
	switch args[0] {
	case "trigger":
	case "condition":
		p = onlyIf
	default:
		return fmt.Errorf("unknown phrase kind %q, want trigger or condition", args[0])
	}

	text := strings.Join(args[1:], " ")
	descs, perr := p.Parse(text)
	if perr != nil {
		printSuggestions(cfg, when, onlyIf, text, perr)
		return perr
	}

	out, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// printSuggestions offers near-miss example phrases when no grammar
// recognized the input and the suggester is configured.
func printSuggestions(cfg *config.Global, when, onlyIf *phrase.Parser, text string, perr error) {
	if !phrase.IsKind(perr, phrase.NoMatchingGrammar) {
		return
	}
	if !cfg.Suggest.Enabled || cfg.Suggest.ModelPath == "" {
		return
	}

	examples := append(when.Examples(), onlyIf.Examples()...)
	sg, err := suggest.New(cfg.Suggest.ModelPath, examples)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: suggester unavailable: %v\n", err)
		return
	}
	defer sg.Close()

	ranked, err := sg.Suggest(text, 3)
	if err != nil || len(ranked) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "Did you mean one of:")
	for _, r := range ranked {
		fmt.Fprintf(os.Stderr, "  %s\n", r.Phrase)
	}
}

func cmdItems(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rulephrase items import|search ...")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Registry.Path == "" {
		return fmt.Errorf("item management requires registry.path in %s", configPath())
	}

	switch args[0] {
	case "import":
		invPath := cfg.Registry.Inventory
		if len(args) > 1 {
			invPath = args[1]
		}
		if invPath == "" {
			return fmt.Errorf("no inventory file: pass a path or set registry.inventory")
		}

		inv, err := registry.LoadInventory(invPath)
		if err != nil {
			return err
		}
		db, err := registry.Open(cfg.Registry.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Import(inv); err != nil {
			return err
		}
		fmt.Printf("Imported %d items, %d things, %d channels\n",
			len(inv.Items), len(inv.Things), len(inv.Channels))
		return nil

	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: rulephrase items search <query>")
		}
		db, err := registry.Open(cfg.Registry.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.SearchItems(strings.Join(args[1:], " "), 20)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No matches")
			return nil
		}
		fmt.Printf("%-24s %-10s %s\n", "NAME", "KIND", "LABEL")
		for _, it := range items {
			fmt.Printf("%-24s %-10s %s\n", it.Name, it.Kind, it.Label)
		}
		return nil

	default:
		return fmt.Errorf("unknown items subcommand: %s", args[0])
	}
}

func cmdStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s:%d/health", cfg.Service.ListenAddress, cfg.Service.ListenPort)
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Println("Daemon is not running")
		return nil
	}
	defer resp.Body.Close()

	var health struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		RulesLoaded int    `json:"rules_loaded"`
		RulesValid  int    `json:"rules_valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	fmt.Printf("Daemon is running (status %s, uptime %s)\n", health.Status, health.Uptime)
	fmt.Printf("Rules: %d loaded, %d valid\n", health.RulesLoaded, health.RulesValid)
	return nil
}

func cmdLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	follow := fs.Bool("f", false, "follow logs")
	fs.BoolVar(follow, "follow", false, "follow logs")
	fs.Parse(args)

	logPath := filepath.Join(defaultLogsDir, "rulephrased.log")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logPath)
	}

	tailArgs := []string{"-n", "50"}
	if *follow {
		tailArgs = append(tailArgs, "-f")
	}
	tailArgs = append(tailArgs, logPath)

	cmd := exec.Command("tail", tailArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
