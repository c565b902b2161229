package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
)

var (
	runCity    string
	runCountry string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once for a city",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}
		place := model.Place{City: runCity, Country: runCountry}
		if !place.Valid() {
			return eris.New("run: --city and --country are required")
		}

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Run(ctx, place)

		zap.L().Info("run complete",
			zap.Stringer("place", place),
			zap.Bool("success", result.Success),
			zap.Int("articles", len(result.Articles)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "run: encode result")
		}
		if !result.Success {
			return eris.Errorf("run: %s", result.Error)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCity, "city", "", "city to fetch news for (required)")
	runCmd.Flags().StringVar(&runCountry, "country", "", "country of the city (required)")
	rootCmd.AddCommand(runCmd)
}
