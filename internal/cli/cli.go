package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/sandplan/internal/app"
	"github.com/specialistvlad/sandplan/internal/inventory"
)

// Environment variables that provide flag defaults.
const (
	EnvLogLevel    = "SANDPLAN_LOG_LEVEL"
	EnvLogFormat   = "SANDPLAN_LOG_FORMAT"
	EnvCatalog     = "SANDPLAN_CATALOG"
	EnvLocalConfig = "SANDPLAN_LOCAL_CONFIG"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags may appear before or after the command.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sandplan", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
Sandplan - dependency resolution and rebuild planning for a component build farm.

Usage:
  sandplan [options] COMMAND [COMPONENT...]

Commands:
  aspects        Print the sandbox facts of COMPONENT.
  types          Print the dependency kind of every component below COMPONENT.
  tree           Print the dependency tree of COMPONENT.
  deps           Write dependency files of COMPONENT into -dir.
  bu2            Print the layers to rebuild to bring every COMPONENT up to date.
  changesets     Print the remote head revision of every aspect (-branch %s for every branch).
  buildinfo      Print integrated components and their source URLs.
  publish-files  Write source.txt and manifest.txt for COMPONENT and print its code revision.

Options:
`, inventory.AllBranches)
		flagSet.PrintDefaults()
	}

	catalogFlag := flagSet.String("catalog", os.Getenv(EnvCatalog), "Catalog file or directory. Overrides the catalog repository.")
	cFlag := flagSet.String("c", "", "Catalog file or directory (shorthand).")
	localConfigFlag := flagSet.String("local-config", os.Getenv(EnvLocalConfig), "Local config file. Defaults to ~/.sand.conf.")
	branchFlag := flagSet.String("branch", "", "Catalog branch.")
	bFlag := flagSet.String("b", "", "Catalog branch (shorthand).")
	platformFlag := flagSet.String("platform", "all", "Build platform, or 'all'.")
	sandboxKindFlag := flagSet.String("sandbox-kind", "", "Sandbox kind used to select the sandbox type.")
	sandboxPathFlag := flagSet.String("sandbox-path", "", "Sandbox root that aspect paths are computed under.")
	dirFlag := flagSet.String("dir", "", "Output directory for deps and publish-files.")
	pushFlag := flagSet.Bool("push", false, "Commit and push the built aspect after publish-files.")
	outputFlag := flagSet.String("output", "yaml", "Structured output format. Options: 'yaml' or 'json'.")
	logFormatFlag := flagSet.String("log-format", envOr(EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envOr(EnvLogLevel, "warn"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	parallelismFlag := flagSet.Int("parallelism", 8, "Number of concurrent remote revision lookups.")
	cacheSizeFlag := flagSet.Int("cache-size", 1024, "Number of remote revisions kept in memory.")
	shallowDepthFlag := flagSet.Int("shallow-depth", 1, "Clone depth of built checkouts. 0 clones the full history.")

	var positional []string
	rest := args
	for {
		if err := flagSet.Parse(rest); err != nil {
			if err == flag.ErrHelp {
				return nil, true, nil
			}
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		if flagSet.NArg() == 0 {
			break
		}
		positional = append(positional, flagSet.Arg(0))
		rest = flagSet.Args()[1:]
	}
	slog.Debug("Arguments parsed successfully.", "positional", positional)

	if len(positional) == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	catalogPath := *catalogFlag
	if *cFlag != "" {
		catalogPath = *cFlag
	}
	branch := *branchFlag
	if *bFlag != "" {
		branch = *bFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	var components []string
	if len(positional) > 1 {
		components = positional[1:]
	}

	config, err := app.NewConfig(app.Config{
		Command:      positional[0],
		Components:   components,
		CatalogPath:  catalogPath,
		LocalConfig:  *localConfigFlag,
		Branch:       branch,
		Platform:     *platformFlag,
		SandboxKind:  *sandboxKindFlag,
		SandboxPath:  *sandboxPathFlag,
		Dir:          *dirFlag,
		Push:         *pushFlag,
		Output:       strings.ToLower(*outputFlag),
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Parallelism:  *parallelismFlag,
		CacheSize:    *cacheSizeFlag,
		ShallowDepth: *shallowDepthFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
