package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alfredoptarigan/cv-screener/internal/config"
)

const app = "screener"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "screener ranks candidate resumes against a job description and exports the result as CSV",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

// loadConfig layers the optional YAML file over the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	applyOverrides(cfg, viper.GetViper())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("scoring.scorer") {
		cfg.Scoring.Scorer = v.GetString("scoring.scorer")
	}
	if v.IsSet("scoring.score-min") {
		cfg.Scoring.ScoreMin = v.GetInt("scoring.score-min")
	}
	if v.IsSet("scoring.score-max") {
		cfg.Scoring.ScoreMax = v.GetInt("scoring.score-max")
	}
	if v.IsSet("scoring.match-min") {
		cfg.Scoring.MatchMin = v.GetInt("scoring.match-min")
	}
	if v.IsSet("scoring.match-max") {
		cfg.Scoring.MatchMax = v.GetInt("scoring.match-max")
	}
	if v.IsSet("scoring.red-flag-probability") {
		cfg.Scoring.RedFlagProbability = v.GetFloat64("scoring.red-flag-probability")
	}
	if v.IsSet("scoring.seed") {
		cfg.Scoring.Seed = v.GetInt64("scoring.seed")
	}
	if v.IsSet("scoring.delay") {
		cfg.Scoring.Delay = v.GetDuration("scoring.delay")
	}
	if v.IsSet("worker.concurrency") {
		cfg.Worker.Concurrency = v.GetInt("worker.concurrency")
	}
	if v.IsSet("gemini.api-key") {
		cfg.Gemini.APIKey = v.GetString("gemini.api-key")
	}
	if v.IsSet("gemini.model") {
		cfg.Gemini.Model = v.GetString("gemini.model")
	}
	if v.IsSet("export.path") {
		cfg.Storage.ExportPath = v.GetString("export.path")
	}
	if v.IsSet("export.date-layout") {
		cfg.Export.DateLayout = v.GetString("export.date-layout")
	}
}
