package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/config"
	"github.com/ethicsbot/backend/internal/pkg/database"
)

var configPath string

// rootCmd 评分工具
var rootCmd = &cobra.Command{
	Use:   "gradebook",
	Short: "Batch evaluation and grading for ethics debate sessions",
	Long: `Import the class roster, evaluate exported transcripts and
produce the gradebook CSV.

Available subcommands:
  roster   - Manage the class roster
  evaluate - Evaluate a directory of submissions
  grade    - Aggregate evaluations into final grades`,
	SilenceUsage: true,
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $CONFIG_PATH or config.yaml)")

	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(gradeCmd)
}

func main() {
	defer klog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.GetConfig(), nil
	}
	return config.Load(configPath)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
