// cmd/rulephrased/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/daemon"
	"github.com/colebrumley/rulephrase/internal/mcp"
)

const (
	defaultConfigPath = "/etc/rulephrase/config.yaml"
	defaultRulesDir   = "/etc/rulephrase/rules"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "mcp-server" {
		runMCPServer()
		return
	}

	runDaemon()
}

func configPaths() (configPath, rulesDir string) {
	configPath = os.Getenv("RULEPHRASE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	rulesDir = os.Getenv("RULEPHRASE_RULES_DIR")
	if rulesDir == "" {
		rulesDir = defaultRulesDir
	}
	return configPath, rulesDir
}

func runMCPServer() {
	configPath, rulesDir := configPaths()

	cfg, err := config.LoadGlobal(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	var suggestModel string
	if cfg.Suggest.Enabled {
		suggestModel = cfg.Suggest.ModelPath
	}

	server, err := mcp.NewServer(mcp.Options{
		RegistryPath:  cfg.Registry.Path,
		InventoryPath: cfg.Registry.Inventory,
		RulesDir:      rulesDir,
		SuggestModel:  suggestModel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating MCP server: %v\n", err)
		os.Exit(1)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon() {
	configPath, rulesDir := configPaths()

	d := daemon.New(configPath, rulesDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nReceived shutdown signal")
		cancel()
	}()

	if err := d.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "daemon error: %v\n", err)
		os.Exit(1)
	}
}
