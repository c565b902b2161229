package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/export"
	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/store"
)

var (
	exportOut            string
	exportFormat         string
	exportLocation       string
	exportMinCredibility int
	exportLimit          int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored articles to XLSX or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		format := strings.ToLower(exportFormat)
		if format != "xlsx" && format != "csv" {
			return eris.Errorf("export: unsupported format %q", exportFormat)
		}
		if format == "xlsx" && exportOut == "-" {
			return eris.New("export: xlsx output requires a file path")
		}

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "export: open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "export: migrate store")
		}

		stored, err := st.ListArticles(ctx, model.ArticleFilter{
			Location:       exportLocation,
			MinCredibility: exportMinCredibility,
			Limit:          exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "export: list articles")
		}
		articles := make([]model.Article, len(stored))
		for i, s := range stored {
			articles[i] = s.Article
		}

		if err := writeExport(format, exportOut, articles); err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("format", format),
			zap.String("out", exportOut),
			zap.Int("articles", len(articles)),
		)
		return nil
	},
}

func writeExport(format, out string, articles []model.Article) error {
	if format == "xlsx" {
		return export.WriteXLSX(out, articles)
	}
	if out == "-" {
		return export.WriteCSV(os.Stdout, articles)
	}
	f, err := os.Create(out)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	if err := export.WriteCSV(f, articles); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "export: close file")
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "articles.xlsx", "output path (- for stdout, csv only)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().StringVar(&exportLocation, "location", "", "filter by city or country substring")
	exportCmd.Flags().IntVar(&exportMinCredibility, "min-credibility", 0, "minimum credibility score")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum rows (0 = all)")
	rootCmd.AddCommand(exportCmd)
}
