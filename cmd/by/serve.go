package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugyard/internal/api"
	"github.com/zulandar/bugyard/internal/config"
	"github.com/zulandar/bugyard/internal/db"
	"github.com/zulandar/bugyard/internal/logger"
	"github.com/zulandar/bugyard/internal/notify"
	"github.com/zulandar/bugyard/internal/notify/discord"
	"github.com/zulandar/bugyard/internal/notify/slack"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Migrates the schema, then serves the bug collection until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return api.Start(ctx, api.StartOpts{
		DB:       gormDB,
		Server:   cfg.Server,
		Notifier: notifier,
		Out:      cmd.OutOrStdout(),
	})
}

// buildNotifier wires the configured chat channels behind the priority filter.
func buildNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	var targets notify.Multi
	if cfg.Slack.Enabled() {
		n, err := slack.New(slack.Opts{BotToken: cfg.Slack.Token, ChannelID: cfg.Slack.Channel})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
		logger.Info("slack notifications enabled", zap.String("channel", cfg.Slack.Channel))
	}
	if cfg.Discord.Enabled() {
		n, err := discord.New(discord.Opts{BotToken: cfg.Discord.Token, ChannelID: cfg.Discord.Channel})
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
		logger.Info("discord notifications enabled", zap.String("channel", cfg.Discord.Channel))
	}
	if len(targets) == 0 {
		return notify.Nop{}, nil
	}
	return notify.PriorityFilter{MinPriority: cfg.MinPriority, Next: targets}, nil
}
