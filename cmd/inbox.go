package main

import (
	"context"
	"log"

	"resume-screener/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Work with the resume inbox directory",
}

var inboxRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen everything currently in the inbox once and exit",
	Run: func(_ *cobra.Command, _ []string) {
		runInbox()
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.AddCommand(inboxRunCmd)

	inboxRunCmd.Flags().String("dir", "", "inbox directory, overrides inbox.dir")
	inboxRunCmd.Flags().Bool("notify", false, "notify candidates and recruiters, overrides scheduler.notify")
	viper.BindPFlag("inbox.dir", inboxRunCmd.Flags().Lookup("dir"))
	viper.BindPFlag("scheduler.notify", inboxRunCmd.Flags().Lookup("notify"))
}

func runInbox() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	created, err := runOnceManual(context.Background(), cfg, newAppBuilder(logger))
	if err != nil {
		logger.Fatal("inbox run failed", zap.Error(err))
	}
	logger.Info("inbox run finished", zap.Int("created", created))
}
