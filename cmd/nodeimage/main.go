// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

var cmdMain = &cobra.Command{
	Use:   "nodeimage",
	Short: "Build and run container images for a P2P node",
	Run:   printUsageAndExit1,

	PersistentPreRun: setup,
}

var flagMain struct {
	Settings  string
	Recipe    string
	Docker    string
	Ledger    string
	LogLevel  string
	LogFormat string
	Metrics   string
	Debug     bool
}

// settings are the CLI settings after merging the settings file, NODEIMAGE_*
// environment variables, and flags.
var settings struct {
	Recipe      string `mapstructure:"recipe"`
	Docker      string `mapstructure:"docker"`
	Ledger      string `mapstructure:"ledger"`
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MetricsFile string `mapstructure:"metrics-file"`
}

var logger = slog.Default()

func init() {
	flags := cmdMain.PersistentFlags()
	flags.StringVar(&flagMain.Settings, "settings", "", "Settings file (toml, yaml, or json)")
	flags.StringVarP(&flagMain.Recipe, "recipe", "r", "", "Recipe file (default: the built-in grin Floonet recipe)")
	flags.StringVar(&flagMain.Docker, "docker", "docker", "Container engine command, e.g. podman or 'sudo docker'")
	flags.StringVar(&flagMain.Ledger, "ledger", defaultLedger(), "Build ledger database")
	flags.StringVar(&flagMain.LogLevel, "log-level", "info", "Log levels, e.g. 'info;pipeline=debug'")
	flags.StringVar(&flagMain.LogFormat, "log-format", "", "Log format, text or json (default: text)")
	flags.StringVar(&flagMain.Metrics, "metrics-file", "", "Write build metrics to this Prometheus textfile")
	flags.BoolVar(&flagMain.Debug, "debug", false, "Print errors with call stacks")
}

func main() {
	_ = cmdMain.Execute()
}

func printUsageAndExit1(cmd *cobra.Command, args []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

func defaultLedger() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nodeimage", "ledger.db")
	}
	return filepath.Join(home, ".nodeimage", "ledger.db")
}

func setup(cmd *cobra.Command, _ []string) {
	Debug = flagMain.Debug
	if Debug {
		errors.EnableLocationTracking()
	} else {
		errors.DisableLocationTracking()
	}
	Check(loadSettings(cmd))

	rules, err := logging.ParseRules(settings.LogLevel)
	Check(err)
	logger, err = logging.New(os.Stderr, logging.Options{
		Format:  settings.LogFormat,
		Rules:   rules,
		NoColor: !IsTerminal(os.Stderr),
	})
	Check(err)
	slog.SetDefault(logger)
}

func loadSettings(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("NODEIMAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"recipe", "docker", "ledger", "log-level", "log-format", "metrics-file"} {
		err := v.BindPFlag(name, cmd.Flags().Lookup(name))
		if err != nil {
			return errors.InternalError.WithFormat("bind %s: %w", name, err)
		}
	}

	if flagMain.Settings != "" {
		v.SetConfigFile(flagMain.Settings)
		err := v.ReadInConfig()
		if err != nil {
			return errors.BadRequest.WithFormat("read settings: %w", err)
		}
	}

	err := v.Unmarshal(&settings)
	if err != nil {
		return errors.BadRequest.WithFormat("decode settings: %w", err)
	}
	return nil
}

// loadRecipe loads and validates the selected recipe.
func loadRecipe() *recipe.Recipe {
	r := recipe.Default()
	if settings.Recipe != "" {
		var err error
		r, err = recipe.LoadFrom(settings.Recipe)
		Checkf(err, "load recipe")
	}
	Checkf(r.Validate(), "invalid recipe")
	return r
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
