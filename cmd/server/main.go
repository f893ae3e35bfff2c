package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"francechallenges.com/sales-assistant/internal/config"
	"francechallenges.com/sales-assistant/internal/logger"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "France Challenges sales assistant",
	Long: `Routes each question to the knowledge base, a live web search or a polite refusal,
and records the cost of every model call.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if envFile != "" {
			envFiles = append(envFiles, envFile)
		}
		loaded, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Init(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: ./.env)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
