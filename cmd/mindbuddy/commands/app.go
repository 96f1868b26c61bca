package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petasbytes/mindbuddy/internal/chat"
	"github.com/petasbytes/mindbuddy/internal/config"
	"github.com/petasbytes/mindbuddy/internal/provider"
	"github.com/petasbytes/mindbuddy/internal/telemetry"
	"github.com/petasbytes/mindbuddy/internal/windowing"
	"github.com/petasbytes/mindbuddy/memory"
	"github.com/petasbytes/mindbuddy/profile"
)

// loadConfig reads --config and --verbose and returns the configuration
// together with a logger set up from it.
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig, verbose bool, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return logger, nil
}

// buildEngine wires profile, memory, model and telemetry into a chat engine.
// Any failure here means the assistant cannot start.
func buildEngine(cfg *config.Config, logger *logrus.Logger) (*chat.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := profile.Load(cfg.Profile.Path)
	if err != nil {
		return nil, err
	}

	estimate, err := windowing.LookupEstimator(cfg.Chat.Estimator)
	if err != nil {
		return nil, err
	}

	mem, err := memory.Open(memory.NewFileStore(cfg.Store.Path),
		memory.WithEstimator(estimate),
		memory.WithLogger(logger.WithField("component", "memory")),
	)
	if err != nil {
		return nil, err
	}

	completer, err := provider.New(cfg.LLM)
	if err != nil {
		return nil, err
	}

	style := p.Style
	if cfg.Chat.Style != "" {
		style = cfg.Chat.Style
	}

	return chat.New(
		chat.WithCompleter(completer),
		chat.WithMemory(mem),
		chat.WithProfile(p, style),
		chat.WithTokenBudget(cfg.Chat.TokenBudget),
		chat.WithConversationKey(cfg.Chat.Key),
		chat.WithModelName(cfg.LLM.Model),
		chat.WithLogger(logger.WithField("component", "chat")),
		chat.WithTelemetry(telemetry.New(cfg.Telemetry, logger)),
	)
}

// closeEngine flushes unsaved turns and reports the outcome on out.
func closeEngine(e *chat.Engine, out io.Writer, logger logrus.FieldLogger) {
	if err := e.Close(); err != nil {
		logger.WithError(err).Error("could not save your conversation")
		return
	}
	fmt.Fprintln(out, "Conversation saved.")
}

func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
