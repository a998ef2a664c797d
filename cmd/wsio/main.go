package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/wsio/internal/config"
	"github.com/vango-dev/wsio/internal/errors"
	"github.com/vango-dev/wsio/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	cfg       *config.Config
	log       logging.Options // effective settings after env overrides
	logCloser io.Closer
}

func main() {
	opts := &globalOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		opts.report(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wsio",
		Short: "Named-event messaging over WebSocket",
		Long: `wsio runs the named-event WebSocket demo server and client.

Each side registers listeners by name; names are negotiated down to
4-character aliases so every message after registration carries only
the alias.

Configuration is read from --config, or from wsio.json or wsio.toml in
the working directory. WSIO_LOG_LEVEL, WSIO_LOG_FORMAT and WSIO_LOG_FILE
override the log settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.closeLog()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (.json or .toml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, quiet")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to a rotating file")

	rootCmd.AddCommand(
		serveCmd(opts),
		clientCmd(opts),
		configCmd(opts),
		versionCmd(),
		explainCmd(),
	)
	return rootCmd
}

// load reads the configuration, applies flag overrides and installs the
// default logger.
func (o *globalOptions) load(stderr io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Find(".")
	}
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lo := logOptions(cfg.Log)
	lo.ApplyEnv()
	if lo.File != "" {
		if _, err := os.Stat(filepath.Dir(lo.File)); err != nil {
			return errors.New("W151").WithFile(lo.File).Wrap(err)
		}
	}

	logger, closer := logging.Configure(lo, stderr)
	o.cfg = cfg
	o.log = lo
	o.logCloser = closer

	if cfg.Path() != "" {
		logger.Debug("config loaded", "path", cfg.Path(), "settings", cfg.String())
	}
	return nil
}

func (o *globalOptions) closeLog() {
	if o.logCloser != nil {
		_ = o.logCloser.Close()
		o.logCloser = nil
	}
}

// logSettings returns the effective log settings. Before the config is
// loaded they come from the flags and the environment alone.
func (o *globalOptions) logSettings() logging.Options {
	if o.cfg != nil {
		return o.log
	}
	lo := logging.Options{Format: o.logFormat, File: o.logFile}
	lo.ApplyEnv()
	return lo
}

// report prints a command failure to w and records it in the log file.
// The JSON log format prints the error as one JSON object; colors are only
// used on a terminal when logs are not redirected to a file.
func (o *globalOptions) report(w io.Writer, err error) {
	settings := o.logSettings()

	if settings.File != "" && o.logCloser != nil {
		msg := err.Error()
		var coded *errors.Error
		if stderrors.As(err, &coded) {
			msg = coded.FormatCompact()
		}
		slog.Error("command failed", "error", msg)
	}
	o.closeLog()

	if strings.EqualFold(settings.Format, "json") {
		errors.PrintErrorJSON(w, err)
		return
	}
	if settings.File != "" || !isTerminal(w) {
		errors.DisableColors()
	}
	errors.PrintError(w, err)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func logOptions(lc config.LogConfig) logging.Options {
	return logging.Options{
		Level:      lc.Level,
		Format:     lc.Format,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	}
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
