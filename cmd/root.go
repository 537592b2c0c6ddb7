package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	replayCmd "github.com/racelogix/f1replay-engine-go/pkg/cmd/replay"
	"github.com/racelogix/f1replay-engine-go/pkg/config"
	"github.com/racelogix/f1replay-engine-go/version"
)

const envPrefix = "F1R"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "f1replay",
	Short:   "Replay engine for recorded motorsport telemetry",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:lll // readability
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.f1replay.yml)")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", "info",
		"log level (zap values)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat, "log-format", "json",
		"log format (json or text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter, "log-filter", "",
		"zapfilter rules for text logging")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry, "enable-telemetry", false,
		"enable telemetry (metrics on stdout)")
	rootCmd.PersistentFlags().Float64Var(&config.TrackWidth, "track-width", 200,
		"assumed track width in world units")
	rootCmd.PersistentFlags().Float64Var(&config.CircuitRotation, "rotation", 0,
		"rotation (degrees) applied to the circuit around its centre")
	rootCmd.PersistentFlags().IntVar(&config.LeftUIMargin, "left-margin", 340,
		"viewport pixels reserved for UI on the left")
	rootCmd.PersistentFlags().IntVar(&config.RightUIMargin, "right-margin", 0,
		"viewport pixels reserved for UI on the right")
	rootCmd.PersistentFlags().Float64Var(&config.PaddingFraction, "padding", 0.05,
		"fraction of the usable area kept free around the track")
	rootCmd.PersistentFlags().IntVar(&config.BoundarySamples, "boundary-samples", 2000,
		"resample count for boundary curves")
	rootCmd.PersistentFlags().IntVar(&config.CenterlineSamples, "centerline-samples", 4000,
		"resample count for the reference centerline")
	rootCmd.PersistentFlags().Float64Var(&config.FPS, "fps", 25,
		"assumed sample rate when frame timestamps are missing")
	rootCmd.PersistentFlags().Float64Var(&config.PlaybackSpeed, "speed", 1.0,
		"initial playback speed multiplier")

	// add commands here
	rootCmd.AddCommand(replayCmd.NewReplayCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".f1replay" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1replay")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to F1R_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
