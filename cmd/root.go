package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "hire-labor"
	envPrefix = "HIRE_LABOR"

	driverDemo     = "demo"
	driverFile     = "file"
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
	driverHTTP     = "http"
)

type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	AI     AIConfig     `mapstructure:"ai"`
	Search SearchConfig `mapstructure:"search"`
	Server ServerConfig `mapstructure:"server"`
}

type StoreConfig struct {
	Driver    string `mapstructure:"driver" validate:"oneof=demo file sqlite postgres http"`
	Path      string `mapstructure:"path" validate:"required_if=Driver file,required_if=Driver sqlite"`
	DSN       string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	URL       string `mapstructure:"url" validate:"required_if=Driver http"`
	TokenFile string `mapstructure:"token-file"`
	Watch     bool   `mapstructure:"watch"`
}

type AIConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Gemini  GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Rate         float64       `mapstructure:"rate" validate:"gte=0"`
	Burst        int           `mapstructure:"burst" validate:"gte=0"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type SearchConfig struct {
	AvailableOnly bool `mapstructure:"available-only"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// Validate checks the config after defaults and overrides were applied.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}

	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hire-labor finds local workers by skill from a free-text query",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	setDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hire-labor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("store", "", "registry store driver: demo, file, sqlite, postgres or http")
	rootCmd.PersistentFlags().String("store-path", "", "workers file or sqlite database path")
	rootCmd.PersistentFlags().Bool("available-only", false, "hide busy workers from results")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	viper.BindPFlag("search.available-only", rootCmd.PersistentFlags().Lookup("available-only"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", driverDemo)
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.token-file", "")
	v.SetDefault("store.watch", false)
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.timeout", 10*time.Second)
	v.SetDefault("ai.gemini.rate", 2.0)
	v.SetDefault("ai.gemini.burst", 5)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("search.available-only", false)
	v.SetDefault("server.addr", ":8080")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
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
		// Without an explicit --config the file is optional.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
