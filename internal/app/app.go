package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/sandplan/internal/ctxlog"
	"github.com/specialistvlad/sandplan/internal/revcache"
	"github.com/specialistvlad/sandplan/internal/vcs"
	"github.com/specialistvlad/sandplan/internal/vcs/gitvcs"
)

// App encapsulates the planner's state and dependencies.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *vcs.Registry
	cache    *revcache.Cache
	config   *Config
}

// NewApp creates a new application instance. Results are written to outW
// and logs to logW. Without modules the git provider is registered.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...vcs.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Initializing new app instance.", "command", cfg.Command)

	if len(modules) == 0 {
		modules = []vcs.Module{gitvcs.Module{ShallowDepth: cfg.ShallowDepth}}
	}

	size := cfg.CacheSize
	if size == 0 {
		size = revcache.DefaultSize
	}
	cache, err := revcache.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create revision cache: %w", err)
	}

	a := &App{
		outW:     outW,
		logger:   logger,
		registry: vcs.NewRegistry(modules...),
		cache:    cache,
		config:   cfg,
	}
	logger.Debug("App instance created.", "providers", a.registry.Providers())
	return a, nil
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Info("Running command.", "command", a.config.Command, "components", a.config.Components)

	var err error
	switch a.config.Command {
	case CmdAspects:
		err = a.runAspects(ctx)
	case CmdTypes:
		err = a.runTypes(ctx)
	case CmdTree:
		err = a.runTree(ctx)
	case CmdDeps:
		err = a.runDeps(ctx)
	case CmdBuildUpTo:
		err = a.runBuildUpTo(ctx)
	case CmdChangesets:
		err = a.runChangesets(ctx)
	case CmdBuildInfo:
		err = a.runBuildInfo(ctx)
	case CmdPublishFiles:
		err = a.runPublishFiles(ctx)
	default:
		err = fmt.Errorf("unknown command '%s'", a.config.Command)
	}
	if err != nil {
		a.logger.Error("Command failed.", "command", a.config.Command, "error", err)
		return err
	}
	a.logger.Debug("Command finished.", "command", a.config.Command)
	return nil
}
