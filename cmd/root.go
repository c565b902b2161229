package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Local news pipeline: fetch, summarize, fact-check and serve headlines for a place",
	Long: `newsdesk pulls headlines for a city and country from NewsAPI or RSS feeds,
summarizes each article, scores its credibility against known outlets and
cross-references, and stores the result in Postgres or SQLite. Articles that
cannot be stored are buffered in memory until the next successful run.

  run     process one place and print the result
  serve   expose /api/news and the /api/agents control routes, optionally
          re-running a place on an interval
  export  write stored articles to xlsx or csv

Configuration is read from config.yaml and NEWSDESK_* environment variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
