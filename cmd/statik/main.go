package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	statik "github.com/jward/statik"
)

// Exit codes (spec §6): 0 success, 1 lint errors present or usage error,
// 2 internal error.
const (
	exitOK         = 0
	exitUsageOrLint = 1
	exitInternal   = 2
)

var (
	flagFormat  string
	flagLang    []string
	flagInclude []string
	flagExclude []string
	flagNoIndex bool
	flagDB      string
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if exitCoder, ok := err.(interface{ ExitCode() int }); ok {
			return exitCoder.ExitCode()
		}
		return exitInternal
	}
	return exitOK
}

var rootCmd = &cobra.Command{
	Use:           "statik",
	Short:         "Polyglot, repository-level static architecture analyzer",
	Long:          "statik indexes a project's files, symbols, and cross-references into a durable store, then answers dependency, dead-code, cycle, and architecture-rule questions against that index.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return usageErr(err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().StringSliceVar(&flagLang, "lang", nil, "restrict discovery to these languages")
	rootCmd.PersistentFlags().StringArrayVar(&flagInclude, "include", nil, "include glob (repeatable)")
	rootCmd.PersistentFlags().StringArrayVar(&flagExclude, "exclude", nil, "exclude glob (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagNoIndex, "no-index", false, "skip the automatic re-index before running a query")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .statik/index.db relative to repo root)")

	rootCmd.AddCommand(indexCmd, depsCmd, exportsCmd, deadCodeCmd, cyclesCmd, impactCmd, summaryCmd, lintCmd,
		symbolsCmd, referencesCmd, callersCmd)
}

// exitError carries a specific process exit code through cobra's error path.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }

func internalErr(err error) error { return &exitError{code: exitInternal, err: err} }
func usageErr(err error) error    { return &exitError{code: exitUsageOrLint, err: err} }

// session bundles the repo root, engine, and config resolved for one
// invocation, grounded on canopy's resolveTargetDir/findRepoRoot/resolveDBPath
// helpers in cmd/canopy/main.go.
type session struct {
	repoRoot string
	engine   *statik.Engine
	config   statik.Config
}

func openSession(targetArgs []string) (*session, error) {
	targetDir, err := resolveTargetDir(targetArgs)
	if err != nil {
		return nil, usageErr(err)
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, internalErr(fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	cfg, err := loadConfig(repoRoot, flagConfigPath)
	if err != nil {
		return nil, internalErr(err)
	}
	if len(flagLang) > 0 {
		cfg.Discovery.Languages = flagLang
	}
	if len(flagInclude) > 0 {
		cfg.Discovery.Include = flagInclude
	}
	if len(flagExclude) > 0 {
		cfg.Discovery.Exclude = flagExclude
	}

	engine, err := statik.Open(dbPath, cfg)
	if err != nil {
		return nil, internalErr(err)
	}
	return &session{repoRoot: repoRoot, engine: engine, config: cfg}, nil
}

func (s *session) close() { s.engine.Close() }

// maybeReindex re-indexes repoRoot unless --no-index was given (spec §6).
func (s *session) maybeReindex(ctx context.Context) error {
	if flagNoIndex {
		return nil
	}
	_, err := s.engine.Index(ctx, s.repoRoot)
	return err
}

// relPath turns a user-supplied path argument into the project-relative,
// POSIX-separated form the store indexes files under.
func (s *session) relPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(s.repoRoot, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".statik", "index.db")
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Refresh the index under path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args)
		if err != nil {
			return err
		}
		defer s.close()
		stats, err := s.engine.Index(cmd.Context(), s.repoRoot)
		if err != nil {
			return internalErr(err)
		}
		return formatIndexStats(os.Stdout, flagFormat, stats)
	},
}

var (
	flagTransitive bool
	flagDirection  string
	flagMaxDepth   int
)

var depsCmd = &cobra.Command{
	Use:   "deps <path>",
	Short: "List a file's dependency neighbors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		rel, err := s.relPath(args[0])
		if err != nil {
			return usageErr(err)
		}

		fg, err := s.engine.BuildFileGraph()
		if err != nil {
			return internalErr(err)
		}

		depth := flagMaxDepth
		if !flagTransitive {
			depth = 1
		}

		var nodes []statik.GraphNode
		switch flagDirection {
		case "", "forward":
			nodes, err = fg.Descendants(rel, depth)
		case "reverse":
			nodes, err = fg.Ancestors(rel, depth)
		default:
			return usageErr(fmt.Errorf("invalid --direction %q: must be forward or reverse", flagDirection))
		}
		if err != nil {
			return internalErr(err)
		}
		return formatGraphNodes(os.Stdout, flagFormat, nodes)
	},
}

func init() {
	depsCmd.Flags().BoolVar(&flagTransitive, "transitive", false, "include transitive dependencies, not just direct ones")
	depsCmd.Flags().StringVar(&flagDirection, "direction", "forward", "forward (what it imports) or reverse (what imports it)")
	depsCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "maximum traversal depth (0 = uncapped, capped internally at 100)")
}

var exportsCmd = &cobra.Command{
	Use:   "exports <path>",
	Short: "List a file's exported symbols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		rel, err := s.relPath(args[0])
		if err != nil {
			return usageErr(err)
		}

		all, err := s.engine.Exports()
		if err != nil {
			return internalErr(err)
		}
		var out []statik.ExportedSymbol
		for _, e := range all {
			if e.File == rel {
				out = append(out, e)
			}
		}
		return formatExports(os.Stdout, flagFormat, out)
	},
}

var flagDeadScope string

var deadCodeCmd = &cobra.Command{
	Use:   "dead-code",
	Short: "List symbols unreachable from any entry point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		switch flagDeadScope {
		case statik.DeadScopeFunctions, statik.DeadScopeClasses, statik.DeadScopeAll:
		default:
			return usageErr(fmt.Errorf("invalid --scope %q: must be functions, classes, or all", flagDeadScope))
		}
		dead, err := s.engine.DeadCode(flagDeadScope)
		if err != nil {
			return internalErr(err)
		}
		return formatDeadSymbols(os.Stdout, flagFormat, dead)
	},
}

func init() {
	deadCodeCmd.Flags().StringVar(&flagDeadScope, "scope", statik.DeadScopeAll, "functions|classes|all")
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Report import cycles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		cycles, err := s.engine.Cycles()
		if err != nil {
			return internalErr(err)
		}
		return formatCycles(os.Stdout, flagFormat, cycles)
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact <path>",
	Short: "List files that transitively depend on path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		rel, err := s.relPath(args[0])
		if err != nil {
			return usageErr(err)
		}
		files, err := s.engine.Impact([]string{rel}, flagMaxDepth)
		if err != nil {
			return internalErr(err)
		}
		return formatImpact(os.Stdout, flagFormat, files)
	},
}

func init() {
	impactCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "maximum traversal depth (0 = uncapped, capped internally at 100)")
}

var flagTopHotspots int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Per-language breakdown with fan-in/fan-out hotspots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}
		summary, err := s.engine.Summary(flagTopHotspots)
		if err != nil {
			return internalErr(err)
		}
		return formatSummary(os.Stdout, flagFormat, summary)
	},
}

func init() {
	summaryCmd.Flags().IntVar(&flagTopHotspots, "top", 10, "number of hotspot files to report, ranked across all languages")
}

var (
	flagConfigPath      string
	flagRuleFilter      []string
	flagSeverityThreshold string
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Evaluate configured architecture rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.close()
		if err := s.maybeReindex(cmd.Context()); err != nil {
			return internalErr(err)
		}

		minSeverity := statik.SeverityInfo
		if flagSeverityThreshold != "" {
			minSeverity, err = statik.ParseSeverity(flagSeverityThreshold)
			if err != nil {
				return usageErr(err)
			}
		}

		activeRules := s.config.Rules
		if len(flagRuleFilter) > 0 {
			wanted := map[string]bool{}
			for _, id := range flagRuleFilter {
				wanted[id] = true
			}
			var filtered []statik.RuleConfig
			for _, r := range activeRules {
				if wanted[r.ID] {
					filtered = append(filtered, r)
				}
			}
			activeRules = filtered
		}

		result, err := s.engine.Evaluate(activeRules, minSeverity)
		if err != nil {
			return internalErr(err)
		}
		if err := formatDiagnostics(os.Stdout, flagFormat, result); err != nil {
			return internalErr(err)
		}
		if result.HasErrors {
			return &exitError{code: exitUsageOrLint, err: fmt.Errorf("%d lint error(s)", countErrors(result))}
		}
		return nil
	},
}

// errDeepModeRequired is returned by symbols/references/callers (spec §1:
// "Deep semantic analysis via an external language server is explicitly
// unsupported in this core; the affected commands must report
// unavailability"). Identifier-level data already lives in the index
// (exports, deps, dead-code); these three commands are the ones that would
// need real type resolution to answer precisely, so they stay stubs rather
// than give an approximate, potentially misleading answer.
func errDeepModeRequired(name string) error {
	return usageErr(fmt.Errorf("%s requires deep mode (v2), which this build does not provide", name))
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <path>",
	Short: "List symbols with full type signatures (deep mode only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errDeepModeRequired("symbols")
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <symbol>",
	Short: "Find type-resolved references to a symbol (deep mode only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errDeepModeRequired("references")
	},
}

var callersCmd = &cobra.Command{
	Use:   "callers <symbol>",
	Short: "Find type-resolved callers of a symbol (deep mode only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errDeepModeRequired("callers")
	},
}

func countErrors(result *statik.EvalResult) int {
	n := 0
	for _, d := range result.Diagnostics {
		if d.Severity == statik.SeverityError {
			n++
		}
	}
	return n
}

func init() {
	lintCmd.Flags().StringVar(&flagConfigPath, "config", "", "path to a rules TOML file (default: .statik/rules.toml or statik.toml)")
	lintCmd.Flags().StringArrayVar(&flagRuleFilter, "rule", nil, "restrict evaluation to these rule ids (repeatable)")
	lintCmd.Flags().StringVar(&flagSeverityThreshold, "severity-threshold", "info", "info|warning|error")
}
