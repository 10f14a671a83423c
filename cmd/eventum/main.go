package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/eventum-app/eventum/internal/config"
	"github.com/eventum-app/eventum/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// color reports whether stdout gets ANSI colors.
var color = true

// globals are the flags shared by every command.
type globals struct {
	dir        string
	configPath string
	noColor    bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "eventum",
		Short: "Run and inspect the eventum client",
		Long: `eventum runs the event and chat client headlessly.

  • serve starts a local backend with demo data
  • visit renders screens against a backend and prints them`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupColor(g.noColor)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Directory holding eventum.json or eventum.yaml")
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Configuration file (overrides --dir)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		serveCmd(g),
		visitCmd(g),
		versionCmd(),
	)
	return rootCmd
}

func setupColor(disabled bool) {
	fd := os.Stdout.Fd()
	color = !disabled && os.Getenv("NO_COLOR") == "" &&
		(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	if color {
		errors.EnableColors()
	} else {
		errors.DisableColors()
	}
}

// load reads the configuration selected by the global flags.
func (g *globals) load() (*config.Config, error) {
	if g.configPath != "" {
		return config.LoadFile(g.configPath)
	}
	return config.LoadOrDefault(g.dir)
}

// logger builds the process logger from cfg.
func (g *globals) logger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	if g.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func paint(code, s string) string {
	if !color {
		return s
	}
	return code + s + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}
