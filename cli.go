package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"harbor-go/utils"
)

var (
	cfg        = utils.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "harbor [flags]",
	Short:         "Harbor Discord bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cfg, cmd.Name() != migrateCmd.Name())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := utils.NewLogger(os.Stdout, cfg.Level())
		bot, err := NewBot(cfg, logger)
		if err != nil {
			return err
		}
		return bot.Run(cmd.Context())
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Overwrite the registered slash commands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := utils.NewLogger(os.Stdout, cfg.Level())
		s, err := newSession(cfg, logger)
		if err != nil {
			return err
		}
		return registerCommands(cmd.Context(), s, cfg.Discord.AppID, cfg.Discord.GuildID)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		utils.NewLogger(os.Stdout, cfg.Level())
		if cfg.DatabaseURL == "" {
			return errors.New("database_url is not set")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), utils.DefaultDatabaseTimeout)
		defer cancel()
		if err := utils.SetupDatabase(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer utils.CloseDatabase()
		slog.Info("schema is up to date")
		return nil
	},
}

// loadConfig decodes viper's settings into c, validates them and installs
// them as the active configuration
func loadConfig(c *utils.Config, requireToken bool) error {
	err := viper.Unmarshal(
		c,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(requireToken); err != nil {
		return err
	}
	utils.Apply(c)
	return nil
}

// Execute runs the root command until it returns or the process is signalled
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			slog.Warn("received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", tint.Err(err))
		cancel()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load (default .env)")
	rootCmd.AddCommand(runCmd, registerCmd, migrateCmd)
}

func initConfig() {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Fatalf("error loading %s: %v", configFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("error loading .env: %v", err)
	}
	setDefaults(viper.GetViper())
}

// setDefaults registers every key so AutomaticEnv can find it during
// Unmarshal
func setDefaults(v *viper.Viper) {
	d := utils.DefaultConfig()

	v.SetDefault("discord.token", "")
	v.SetDefault("discord.app_id", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("database_url", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("http.listen", d.HTTP.Listen)
	v.SetDefault("http.token", "")

	v.SetDefault("ratelimit.per_second", d.RateLimit.PerSecond)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("session_timeout", d.SessionTimeout)
	v.SetDefault("builder_timeout", d.BuilderTimeout)
	v.SetDefault("user_cache_ttl", d.UserCacheTTL)
	v.SetDefault("status", d.Status)

	v.SetEnvPrefix(utils.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
