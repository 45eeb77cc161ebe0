package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yuanying/cbzmeta/internal/comic"
	"github.com/yuanying/cbzmeta/internal/config"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// cliOptions holds the settings shared by every subcommand: the loaded
// configuration with flag overrides applied, and the logger built from it.
type cliOptions struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cbzmeta",
		Short: "Inspect and edit ComicInfo metadata in CBZ archives",
		Long: `cbzmeta reads comic book archives (.cbz), shows their pages and
ComicInfo.xml metadata, edits metadata and bookmarks, and writes the archive
back with a regenerated ComicInfo.xml.

It can also convert fixed-layout EPUB comics into CBZ archives.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (default: ~/.config/cbzmeta/config.toml or ./cbzmeta.toml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default from config, else info)")
	flags.String("log-format", "", "Log format: text, json (default from config, else text)")
	flags.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	cmd.AddCommand(
		newInfoCmd(),
		newEditCmd(),
		newPreviewCmd(),
		newImportEPUBCmd(),
	)
	return cmd
}

// readCLIOptions loads the configuration and applies the global flags on
// top of it.
func readCLIOptions(cmd *cobra.Command) (cliOptions, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return cliOptions{}, err
	}

	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		level = strings.ToLower(strings.TrimSpace(level))
		if _, ok := logLevels[level]; !ok {
			return cliOptions{}, fmt.Errorf("--log-level must be one of debug, info, warn, error: %q", level)
		}
		cfg.Logging.Level = level
	}
	if flags.Changed("log-format") {
		format, _ := flags.GetString("log-format")
		format = strings.ToLower(strings.TrimSpace(format))
		if format != "text" && format != "json" {
			return cliOptions{}, fmt.Errorf("--log-format must be text or json: %q", format)
		}
		cfg.Logging.Format = format
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	logger := buildLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if exists {
		logger.Debug("loaded config", slog.String("path", resolved))
	}

	return cliOptions{
		Config:     cfg,
		ConfigPath: resolved,
		Logger:     logger,
	}, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lv, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lv = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// newSession builds a session configured from the CLI options.
func (o cliOptions) newSession() *comic.Session {
	return comic.NewSession(comic.SessionOptions{
		Load: comic.LoadOptions{
			Locale:       o.Config.LocaleTag(),
			Workers:      o.Config.Library.Workers,
			ReadBookInfo: o.Config.Library.ReadComicBookInfo,
			Logger:       o.Logger,
		},
		Save: comic.SaveOptions{
			BookInfoComment: o.Config.Save.ComicBookInfoComment,
			AppID:           o.Config.Save.AppID,
		},
		Logger: o.Logger,
	})
}

// defaultOutputPath replaces the extension of input with ext.
func defaultOutputPath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
