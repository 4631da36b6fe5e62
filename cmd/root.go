// cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aceteam-ai/gatewatch/internal/config"
	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

var (
	cfgFile       string
	gatewayURL    string
	gatewayToken  string
	transportFlag string
	dbPath        string
	debugMode     bool
	noColor       bool
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	goodColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	badColor    = color.New(color.FgRed)
	labelColor  = color.New(color.Bold)
)

// logger is the process-wide structured logger. Debug events only reach it
// when --debug is set.
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

var loggerInitOnce sync.Once

// debugLogFile is the file handle for debug logging
var debugLogFile *os.File

// initLogger raises the level for --debug and mirrors debug output to
// ~/.gatewatch/logs/debug.log.
func initLogger() {
	if !debugMode {
		return
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}}
	if homeDir, err := os.UserHomeDir(); err == nil {
		logDir := filepath.Join(homeDir, ".gatewatch", "logs")
		if err := os.MkdirAll(logDir, 0755); err == nil {
			f, err := os.OpenFile(filepath.Join(logDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err == nil {
				debugLogFile = f
				writers = append(writers, f)
			}
		}
	}

	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// closeDebugLog closes the debug log file, if one was opened.
func closeDebugLog() {
	if debugLogFile == nil {
		return
	}
	debugLogFile.Close()
	debugLogFile = nil
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

// Debug logs a message if debug mode is enabled
func Debug(format string, args ...any) {
	if debugMode {
		logger.Debug().Msgf(format, args...)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gatewatch",
	Short: "gatewatch monitors an orchestration gateway",
	Long: `A CLI and local dashboard for an orchestration gateway: inspect scheduled
jobs, project them onto a weekly calendar, and track session token usage and cost.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loggerInitOnce.Do(initLogger)
		if noColor {
			color.NoColor = true
		}
		if debugMode {
			Debug("command: %s", commandLine(cmd, args))
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeDebugLog()
	},
}

// commandLine reconstructs the invoked command with the flags that were set.
func commandLine(cmd *cobra.Command, args []string) string {
	fullCmd := "gatewatch"
	if cmd.Name() != "gatewatch" {
		fullCmd += " " + cmd.Name()
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch {
		case f.Name == "debug":
			return
		case f.Name == "token":
			fullCmd += " --token=***"
		case f.Value.Type() == "bool":
			fullCmd += " --" + f.Name
		default:
			fullCmd += " --" + f.Name + "=" + f.Value.String()
		}
	})
	if len(args) > 0 {
		fullCmd += " " + strings.Join(args, " ")
	}
	return fullCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails.
	closeDebugLog()
	if err != nil {
		stop()
		badColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration from file, environment and flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, config.Overrides{
		GatewayURL: gatewayURL,
		Token:      gatewayToken,
		Transport:  transportFlag,
		DBPath:     dbPath,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		Debug("config loaded from %s", cfg.Source)
	}
	Debug("gateway %s via %s (timeout %s)", cfg.GatewayURL, cfg.Transport, cfg.Timeout())
	return cfg, nil
}

// newClient builds a gateway client from cfg.
func newClient(cfg *config.Config) (*gateway.Client, error) {
	client, err := gateway.NewClient(cfg.GatewayConfig(Version, Debug))
	if err != nil {
		return nil, fmt.Errorf("create gateway client: %w", err)
	}
	return client, nil
}

// loadClient is loadConfig followed by newClient.
func loadClient() (*config.Config, *gateway.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gatewatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "gateway base URL (env: GATEWATCH_GATEWAY_URL)")
	rootCmd.PersistentFlags().StringVar(&gatewayToken, "token", "", "gateway bearer token (env: GATEWATCH_GATEWAY_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&transportFlag, "transport", "", "wire generation: rpc, tools or ws")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "usage snapshot database (default is $HOME/.gatewatch/usage.db)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}
