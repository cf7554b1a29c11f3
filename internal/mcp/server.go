// internal/mcp/server.go

// Package mcp exposes the phrase parser over the Model Context
// Protocol so agent tooling can parse phrases, vet rule files, and
// search the item registry without shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/logging"
	"github.com/colebrumley/rulephrase/internal/phrase"
	"github.com/colebrumley/rulephrase/internal/registry"
	"github.com/colebrumley/rulephrase/internal/rulebook"
	"github.com/colebrumley/rulephrase/internal/security"
	"github.com/colebrumley/rulephrase/internal/suggest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with phrase tools.
type Server struct {
	when      *phrase.Parser
	onlyIf    *phrase.Parser
	builder   *rulebook.Builder
	db        *registry.DB // nil when serving straight from a YAML inventory
	suggester *suggest.Suggester
	rulesDir  string
	server    *mcp.Server
}

// Options name the resources backing the tools.
type Options struct {
	RegistryPath  string // SQLite registry database
	InventoryPath string // YAML inventory, imported into the database or served directly
	RulesDir      string // directory of rule definition files
	SuggestModel  string // embedding model path; empty disables suggestions
}

// ParsePhraseInput is the input schema for the parse_phrase tool
type ParsePhraseInput struct {
	Phrase string `json:"phrase" jsonschema:"The trigger or condition phrase to parse"`
	Kind   string `json:"kind,omitempty" jsonschema:"Phrase kind: trigger (default) or condition"`
}

// ParsePhraseOutput is the output schema for the parse_phrase tool.
// Exactly one of Descriptors or FailureKind is populated.
type ParsePhraseOutput struct {
	Descriptors []DescriptorResult `json:"descriptors,omitempty"`
	Count       int                `json:"count"`
	FailureKind string             `json:"failure_kind,omitempty"`
	Error       string             `json:"error,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// DescriptorResult is one module descriptor in parse results
type DescriptorResult struct {
	Type   string        `json:"type"`
	Config []ParamResult `json:"config"`
}

// ParamResult is a single configuration parameter, in build order
type ParamResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CheckRulesInput is the input schema for the check_rules tool
type CheckRulesInput struct {
	Rule string `json:"rule,omitempty" jsonschema:"Optional rule name to check; all rules when empty"`
}

// CheckRulesOutput is the output schema for the check_rules tool
type CheckRulesOutput struct {
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
	Rules   []RuleReport `json:"rules"`
}

// RuleReport summarizes one compiled rule
type RuleReport struct {
	Name       string   `json:"name"`
	Valid      bool     `json:"valid"`
	Triggers   int      `json:"triggers"`
	Conditions int      `json:"conditions"`
	Problems   []string `json:"problems,omitempty"`
}

// SearchItemsInput is the input schema for the search_items tool
type SearchItemsInput struct {
	Query string `json:"query" jsonschema:"Full-text search over item names and labels"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results to return, default 20"`
}

// SearchItemsOutput is the output schema for the search_items tool
type SearchItemsOutput struct {
	Items []ItemResult `json:"items"`
	Count int          `json:"count"`
}

// ItemResult is a single item in search results
type ItemResult struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

// NewServer opens the registry named by opts and builds an MCP server
// with the phrase tools registered.
func NewServer(opts Options) (*Server, error) {
	var reg registry.Registry
	var db *registry.DB

	switch {
	case opts.RegistryPath != "":
		var err error
		db, err = registry.Open(opts.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("opening registry: %w", err)
		}
		if opts.InventoryPath != "" {
			inv, err := registry.LoadInventory(opts.InventoryPath)
			if err != nil {
				db.Close()
				return nil, err
			}
			if err := db.Import(inv); err != nil {
				db.Close()
				return nil, err
			}
		}
		reg = db
	case opts.InventoryPath != "":
		inv, err := registry.LoadInventory(opts.InventoryPath)
		if err != nil {
			return nil, err
		}
		reg = registry.NewStatic(inv)
	default:
		return nil, fmt.Errorf("either a registry database or an inventory file is required")
	}

	when := phrase.NewWhenParser(reg)
	onlyIf := phrase.NewOnlyIfParser(reg)

	// stdout carries the protocol, so everything logs to stderr
	logger := logging.NewLogger("text", "warn", os.Stderr)

	s := &Server{
		when:     when,
		onlyIf:   onlyIf,
		builder:  rulebook.NewBuilder(when, onlyIf, logger),
		db:       db,
		rulesDir: opts.RulesDir,
	}

	if opts.SuggestModel != "" {
		examples := append(when.Examples(), onlyIf.Examples()...)
		sg, err := suggest.New(opts.SuggestModel, examples)
		if err != nil {
			logger.Warn("phrase suggester unavailable", "error", err)
		} else {
			s.suggester = sg
		}
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rulephrase",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_phrase",
		Description: "Parse a rule phrase into typed module descriptors. Use kind=condition for only-if phrases such as 'Today is a holiday'. Group phrases like 'Member of gLights changed to ON' expand to one descriptor per member.",
	}, s.handleParsePhrase)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_rules",
		Description: "Compile every rule definition in the rules directory and report which rules are fully parseable. Invalid rules list the phrases that failed and why.",
	}, s.handleCheckRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_items",
		Description: "Full-text search over registered item names and labels. Use it to find the exact item name before writing a phrase.",
	}, s.handleSearchItems)

	s.server = server
	return s, nil
}

func (s *Server) handleParsePhrase(ctx context.Context, req *mcp.CallToolRequest, input ParsePhraseInput) (*mcp.CallToolResult, ParsePhraseOutput, error) {
	p := s.when
	switch input.Kind {
	case "", "trigger":
	case "condition":
		p = s.onlyIf
	default:
		return nil, ParsePhraseOutput{}, fmt.Errorf("unknown phrase kind %q, want trigger or condition", input.Kind)
	}

	descs, err := p.Parse(security.SanitizePhrase(input.Phrase))
	if err != nil {
		perr, ok := phrase.AsParseError(err)
		if !ok {
			return nil, ParsePhraseOutput{}, err
		}
		out := ParsePhraseOutput{
			FailureKind: perr.Kind.String(),
			Error:       perr.Detail,
		}
		if perr.Kind == phrase.NoMatchingGrammar && s.suggester != nil {
			if ranked, serr := s.suggester.Suggest(input.Phrase, 3); serr == nil {
				for _, r := range ranked {
					out.Suggestions = append(out.Suggestions, r.Phrase)
				}
			}
		}
		return nil, out, nil
	}

	out := ParsePhraseOutput{Count: len(descs)}
	for _, d := range descs {
		out.Descriptors = append(out.Descriptors, toDescriptorResult(d))
	}
	return nil, out, nil
}

func (s *Server) handleCheckRules(ctx context.Context, req *mcp.CallToolRequest, input CheckRulesInput) (*mcp.CallToolResult, CheckRulesOutput, error) {
	defs, err := config.LoadRuleDefsDir(s.rulesDir)
	if err != nil {
		return nil, CheckRulesOutput{}, fmt.Errorf("loading rules: %w", err)
	}

	if input.Rule != "" {
		var filtered []*config.RuleDef
		for _, def := range defs {
			if def.Name == input.Rule {
				filtered = append(filtered, def)
			}
		}
		if len(filtered) == 0 {
			return nil, CheckRulesOutput{}, fmt.Errorf("rule %q not found in %s", input.Rule, s.rulesDir)
		}
		defs = filtered
	}

	report := s.builder.CompileAll(defs)
	out := CheckRulesOutput{
		Total:   report.Total(),
		Valid:   report.Valid(),
		Invalid: report.Invalid(),
	}
	for _, r := range report.Rules {
		rep := RuleReport{Name: r.Name, Valid: r.Valid()}
		for _, e := range r.Triggers {
			if !e.Invalid() {
				rep.Triggers++
			}
		}
		for _, e := range r.Conditions {
			if !e.Invalid() {
				rep.Conditions++
			}
		}
		for _, e := range r.Problems() {
			rep.Problems = append(rep.Problems, fmt.Sprintf("%s: %v", e.Phrase, e.Err))
		}
		out.Rules = append(out.Rules, rep)
	}
	return nil, out, nil
}

func (s *Server) handleSearchItems(ctx context.Context, req *mcp.CallToolRequest, input SearchItemsInput) (*mcp.CallToolResult, SearchItemsOutput, error) {
	if s.db == nil {
		return nil, SearchItemsOutput{}, fmt.Errorf("item search requires a registry database, not a YAML inventory")
	}

	items, err := s.db.SearchItems(input.Query, input.Limit)
	if err != nil {
		return nil, SearchItemsOutput{}, fmt.Errorf("searching items: %w", err)
	}

	out := SearchItemsOutput{Count: len(items)}
	for _, it := range items {
		out.Items = append(out.Items, ItemResult{Name: it.Name, Kind: it.Kind, Label: it.Label})
	}
	return nil, out, nil
}

func toDescriptorResult(d descriptor.Descriptor) DescriptorResult {
	res := DescriptorResult{Type: d.Type}
	for _, p := range d.Config.Params() {
		res.Config = append(res.Config, ParamResult{Key: p.Key, Value: d.Config.GetString(p.Key)})
	}
	return res
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the suggester and the registry database, if either
// was opened.
func (s *Server) Close() error {
	if s.suggester != nil {
		s.suggester.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
