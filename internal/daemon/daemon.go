// internal/daemon/daemon.go

// Package daemon runs the long-lived rulephrase service: it compiles
// every rule definition against the item registry, records the
// outcomes, serves the HTTP API, and recompiles when rule files or the
// global config change on disk.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/colebrumley/rulephrase/internal/config"
	"github.com/colebrumley/rulephrase/internal/descriptor"
	"github.com/colebrumley/rulephrase/internal/history"
	"github.com/colebrumley/rulephrase/internal/logging"
	"github.com/colebrumley/rulephrase/internal/phrase"
	"github.com/colebrumley/rulephrase/internal/registry"
	"github.com/colebrumley/rulephrase/internal/rulebook"
	"github.com/colebrumley/rulephrase/internal/security"
	"github.com/colebrumley/rulephrase/internal/suggest"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultLogDir      = "/var/log/rulephrase"
	defaultHistoryPath = "/var/lib/rulephrase/history.db"
)

// Daemon is the rulephrase service.
type Daemon struct {
	configPath string
	rulesDir   string
	config     *config.Global
	logger     *slog.Logger

	reg       registry.Registry
	regDB     *registry.DB // non-nil when the registry is SQLite-backed
	when      *phrase.Parser
	onlyIf    *phrase.Parser
	builder   *rulebook.Builder
	report    *rulebook.Report
	historyDB *history.DB
	suggester *suggest.Suggester

	httpServer *http.Server
	startTime  time.Time
	mu         sync.RWMutex
}

// New creates a daemon instance.
func New(configPath, rulesDir string) *Daemon {
	return &Daemon{
		configPath: filepath.Clean(configPath),
		rulesDir:   filepath.Clean(rulesDir),
	}
}

// Run starts the daemon and blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.startTime = time.Now()

	if err := d.loadConfig(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logWriter, err := d.initLogWriter()
	if err != nil {
		d.logger = logging.NewLogger(d.config.Logging.Format, d.config.Service.LogLevel, os.Stdout)
		d.logger.Warn("failed to initialize rotating log writer, using stdout", "error", err)
	} else {
		d.logger = logging.NewLogger(d.config.Logging.Format, d.config.Service.LogLevel, logWriter)
	}

	d.logger.Info("starting daemon", "config", d.configPath, "rules_dir", d.rulesDir)

	if err := d.openRegistry(); err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}

	d.when = phrase.NewWhenParser(d.reg)
	d.onlyIf = phrase.NewOnlyIfParser(d.reg)
	d.builder = rulebook.NewBuilder(d.when, d.onlyIf, d.logger)

	if d.config.History.Enabled {
		if err := d.initHistoryDB(); err != nil {
			d.logger.Warn("failed to initialize history database, outcomes will not be recorded", "error", err)
		}
	}

	if err := security.ValidateDirectoryPermissions(d.rulesDir); err != nil {
		d.logger.Error("CRITICAL: rules directory has unsafe permissions", "error", err, "path", d.rulesDir)
		// The operator should fix permissions; keep serving meanwhile
	}

	if err := d.compileRules(); err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}

	d.initSuggester()

	go d.startHTTPServer(ctx)
	go d.startWatcher(ctx)

	report := d.snapshotReport()
	d.logger.Info("daemon started", "rules_loaded", report.Total(), "rules_valid", report.Valid())

	<-ctx.Done()
	d.logger.Info("daemon stopping")
	return d.shutdown()
}

func (d *Daemon) initLogWriter() (*logging.RotatingWriter, error) {
	logPath := filepath.Join(defaultLogDir, "rulephrased.log")
	return logging.NewRotatingWriter(logPath, 50*1024*1024, 5)
}

func (d *Daemon) loadConfig() error {
	cfg, err := config.LoadGlobal(d.configPath)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.config = cfg
	d.mu.Unlock()
	return nil
}

func (d *Daemon) getConfig() *config.Global {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// openRegistry resolves the configured registry: a SQLite database
// (refreshed from the inventory file when one is configured) or a
// plain in-memory inventory.
func (d *Daemon) openRegistry() error {
	rc := d.getConfig().Registry
	switch {
	case rc.Path != "":
		db, err := registry.Open(rc.Path)
		if err != nil {
			return err
		}
		if rc.Inventory != "" {
			inv, err := registry.LoadInventory(rc.Inventory)
			if err != nil {
				db.Close()
				return err
			}
			if err := db.Import(inv); err != nil {
				db.Close()
				return err
			}
			d.logger.Info("imported inventory",
				"items", len(inv.Items),
				"things", len(inv.Things),
				"channels", len(inv.Channels),
			)
		}
		d.regDB = db
		d.reg = db
	case rc.Inventory != "":
		inv, err := registry.LoadInventory(rc.Inventory)
		if err != nil {
			return err
		}
		d.reg = registry.NewStatic(inv)
	default:
		return fmt.Errorf("registry requires a database path or an inventory file")
	}
	return nil
}

func (d *Daemon) initHistoryDB() error {
	cfg := d.getConfig().History
	path := cfg.Path
	if path == "" {
		path = defaultHistoryPath
	}

	db, err := history.Open(path)
	if err != nil {
		return err
	}
	d.historyDB = db

	retention := cfg.RetentionDays
	go func() {
		if deleted, err := db.Cleanup(retention); err != nil {
			d.logger.Warn("history cleanup failed", "error", err)
		} else if deleted > 0 {
			d.logger.Info("cleaned up old parse records", "deleted", deleted)
		}
	}()

	return nil
}

func (d *Daemon) initSuggester() {
	cfg := d.getConfig().Suggest
	if !cfg.Enabled || cfg.ModelPath == "" {
		return
	}

	examples := append(d.when.Examples(), d.onlyIf.Examples()...)
	sg, err := suggest.New(cfg.ModelPath, examples)
	if err != nil {
		d.logger.Warn("failed to initialize phrase suggester", "error", err)
		return
	}
	d.suggester = sg
	d.logger.Info("phrase suggester ready", "model", cfg.ModelPath, "examples", len(examples))
}

// compileRules loads every rule definition and compiles its phrases,
// replacing the current report and recording the outcomes.
func (d *Daemon) compileRules() error {
	defs, err := config.LoadRuleDefsDir(d.rulesDir)
	if err != nil {
		return err
	}

	report := d.builder.CompileAll(defs)

	d.mu.Lock()
	d.report = report
	d.mu.Unlock()

	for _, rule := range report.Rules {
		if !rule.Valid() {
			logging.WithRule(d.logger, rule.Name).Warn("rule has unparseable phrases",
				"problems", len(rule.Problems()))
		}
	}

	d.recordCompile(report)
	d.logger.Info("rules compiled",
		"total", report.Total(), "valid", report.Valid(), "invalid", report.Invalid())
	return nil
}

func (d *Daemon) snapshotReport() *rulebook.Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.report
}

// recordCompile writes one history record per distinct phrase of every
// compiled rule.
func (d *Daemon) recordCompile(report *rulebook.Report) {
	if d.historyDB == nil {
		return
	}

	for _, rule := range report.Rules {
		for _, rec := range compileRecords(rule) {
			if _, err := d.historyDB.Record(rec); err != nil {
				d.logger.Warn("failed to record parse outcome", "rule", rule.Name, "error", err)
			}
		}
	}
}

// compileRecords flattens a compiled rule into history records. Group
// expansion yields consecutive entries sharing a phrase; those collapse
// into a single record carrying the descriptor count.
func compileRecords(rule *rulebook.Rule) []history.ParseRecord {
	var recs []history.ParseRecord

	add := func(entries []rulebook.Entry, kind string) {
		for i := 0; i < len(entries); {
			e := entries[i]
			j := i + 1
			for j < len(entries) && entries[j].Phrase == e.Phrase {
				j++
			}

			rec := history.ParseRecord{
				RuleName:   rule.Name,
				Phrase:     e.Phrase,
				PhraseKind: kind,
			}
			if e.Invalid() {
				rec.Outcome = history.OutcomeInvalid
				if perr, ok := phrase.AsParseError(e.Err); ok {
					rec.ErrorKind = perr.Kind.String()
					rec.Detail = perr.Detail
				} else if e.Err != nil {
					rec.Detail = e.Err.Error()
				}
			} else {
				rec.Outcome = history.OutcomeOK
				rec.Descriptors = j - i
			}
			recs = append(recs, rec)
			i = j
		}
	}

	add(rule.Triggers, history.KindTrigger)
	add(rule.Conditions, history.KindCondition)
	return recs
}

func (d *Daemon) startHTTPServer(ctx context.Context) {
	cfg := d.getConfig().Service
	addr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", rateLimitHandler(60, d.handleHealth))
	mux.HandleFunc("/api/rules", rateLimitHandler(30, d.handleAPIRules))
	mux.HandleFunc("/api/parse", rateLimitHandler(30, d.handleAPIParse))
	mux.HandleFunc("/api/history", rateLimitHandler(30, d.handleAPIHistory))
	mux.HandleFunc("/api/items", rateLimitHandler(30, d.handleAPIItems))

	d.httpServer = &http.Server{Addr: addr, Handler: mux}

	d.logger.Info("starting HTTP server", "address", addr)

	go func() {
		if err := d.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			d.logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.httpServer.Shutdown(shutdownCtx)
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := d.snapshotReport()
	uptime := time.Since(d.startTime).Truncate(time.Second).String()

	resp := map[string]any{
		"status":       "ok",
		"uptime":       uptime,
		"rules_loaded": report.Total(),
		"rules_valid":  report.Valid(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type ruleStatus struct {
	Name       string   `json:"name"`
	Enabled    bool     `json:"enabled"`
	Valid      bool     `json:"valid"`
	Triggers   int      `json:"triggers"`
	Conditions int      `json:"conditions"`
	Problems   []string `json:"problems,omitempty"`
}

func (d *Daemon) handleAPIRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := d.snapshotReport()

	rules := make([]ruleStatus, 0, report.Total())
	for _, rule := range report.Rules {
		rs := ruleStatus{
			Name:    rule.Name,
			Enabled: rule.Enabled,
			Valid:   rule.Valid(),
		}
		for _, e := range rule.Triggers {
			if !e.Invalid() {
				rs.Triggers++
			}
		}
		for _, e := range rule.Conditions {
			if !e.Invalid() {
				rs.Conditions++
			}
		}
		for _, e := range rule.Problems() {
			rs.Problems = append(rs.Problems, fmt.Sprintf("%s: %v", e.Phrase, e.Err))
		}
		rules = append(rules, rs)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

type parseResponse struct {
	Phrase      string                  `json:"phrase"`
	Count       int                     `json:"count"`
	Descriptors []descriptor.Descriptor `json:"descriptors"`
}

type parseFailureResponse struct {
	Phrase      string           `json:"phrase"`
	Kind        string           `json:"kind"`
	Error       string           `json:"error"`
	Suggestions []suggest.Ranked `json:"suggestions,omitempty"`
}

func (d *Daemon) handleAPIParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	phraseText := security.SanitizePhrase(r.URL.Query().Get("phrase"))

	p := d.when
	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "trigger":
	case "condition":
		p = d.onlyIf
	default:
		http.Error(w, fmt.Sprintf("unknown phrase kind %q, want trigger or condition", kind), http.StatusBadRequest)
		return
	}

	descs, err := p.Parse(phraseText)
	if err != nil {
		d.writeParseFailure(w, phraseText, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(parseResponse{
		Phrase:      phraseText,
		Count:       len(descs),
		Descriptors: descs,
	})
}

func (d *Daemon) writeParseFailure(w http.ResponseWriter, phraseText string, err error) {
	perr, ok := phrase.AsParseError(err)
	if !ok {
		http.Error(w, fmt.Sprintf("parsing phrase: %v", err), http.StatusInternalServerError)
		return
	}

	resp := parseFailureResponse{
		Phrase: phraseText,
		Kind:   perr.Kind.String(),
		Error:  perr.Detail,
	}
	if perr.Kind == phrase.NoMatchingGrammar && d.suggester != nil {
		if ranked, serr := d.suggester.Suggest(phraseText, 3); serr == nil {
			resp.Suggestions = ranked
		} else {
			d.logger.Warn("phrase suggestion failed", "error", serr)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(resp)
}

func (d *Daemon) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if d.historyDB == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
		return
	}

	ruleName := r.URL.Query().Get("rule")
	outcome := r.URL.Query().Get("outcome")
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if limit > 500 {
		limit = 500
	}

	records, err := d.historyDB.GetHistory(ruleName, outcome, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("querying history: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

type itemResult struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

func (d *Daemon) handleAPIItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if d.regDB == nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if limit > 100 {
		limit = 100
	}

	items, err := d.regDB.SearchItems(query, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("searching items: %v", err), http.StatusInternalServerError)
		return
	}

	results := make([]itemResult, 0, len(items))
	for _, it := range items {
		results = append(results, itemResult{Name: it.Name, Kind: it.Kind, Label: it.Label})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// rateLimitHandler wraps an HTTP handler with a token-bucket limiter.
func rateLimitHandler(requestsPerMinute int, handler http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	tokens := requestsPerMinute
	lastRefill := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		now := time.Now()
		elapsed := now.Sub(lastRefill)
		refill := int(elapsed.Minutes() * float64(requestsPerMinute))
		if refill > 0 {
			tokens += refill
			if tokens > requestsPerMinute {
				tokens = requestsPerMinute
			}
			lastRefill = now
		}

		if tokens <= 0 {
			mu.Unlock()
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		tokens--
		mu.Unlock()

		handler(w, r)
	}
}

// startWatcher watches the rules directory and the config file,
// recompiling after a one second quiet period.
func (d *Daemon) startWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Error("could not create file watcher", "error", err)
		return
	}
	defer watcher.Close()

	logger := logging.WithComponent(d.logger, "watcher")

	if err := watcher.Add(d.rulesDir); err != nil {
		logger.Error("could not watch rules directory", "error", err, "dir", d.rulesDir)
		return
	}
	configDir := filepath.Dir(d.configPath)
	if configDir != d.rulesDir {
		if err := watcher.Add(configDir); err != nil {
			logger.Warn("could not watch config directory", "error", err, "dir", configDir)
		}
	}

	logger.Info("watching for changes", "rules_dir", d.rulesDir, "config", d.configPath)

	var debounceTimer *time.Timer
	debounceCh := make(chan struct{}, 1)
	var rulesDirty, configDirty bool

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			switch {
			case filepath.Clean(event.Name) == d.configPath:
				configDirty = true
			case filepath.Dir(event.Name) == d.rulesDir:
				ext := filepath.Ext(event.Name)
				if ext != ".yaml" && ext != ".yml" {
					continue
				}
				rulesDirty = true
			default:
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(1*time.Second, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case <-debounceCh:
			if configDirty {
				configDirty = false
				d.reloadConfig(logger)
			}
			if rulesDirty {
				rulesDirty = false
				d.reloadRules(logger)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// reloadConfig re-reads the global config. Resources bound at startup
// (listen address, registry, history database) keep their old values
// until restart.
func (d *Daemon) reloadConfig(logger *slog.Logger) {
	cfg, err := config.LoadGlobal(d.configPath)
	if err != nil {
		logger.Error("failed to reload config", "error", err)
		return
	}

	d.mu.Lock()
	old := d.config
	d.config = cfg
	d.mu.Unlock()

	logger.Info("configuration reloaded")
	if old.Service != cfg.Service {
		logger.Warn("service settings change on restart only")
	}
	if old.Registry != cfg.Registry || old.History != cfg.History {
		logger.Warn("registry and history settings change on restart only")
	}
}

func (d *Daemon) reloadRules(logger *slog.Logger) {
	if err := security.ValidateDirectoryPermissions(d.rulesDir); err != nil {
		logger.Error("CRITICAL: rules directory has unsafe permissions during reload", "error", err)
		return
	}

	if err := d.compileRules(); err != nil {
		logger.Error("failed to reload rules", "error", err)
		return
	}

	report := d.snapshotReport()
	logger.Info("rules reloaded", "total", report.Total(), "valid", report.Valid())
}

func (d *Daemon) shutdown() error {
	if d.suggester != nil {
		d.suggester.Close()
	}
	if d.historyDB != nil {
		d.historyDB.Close()
	}
	if d.regDB != nil {
		d.regDB.Close()
	}
	return nil
}
