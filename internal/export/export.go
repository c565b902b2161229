// Package export writes article listings to XLSX and CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/newsdesk/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Articles"

// Header lists the exported columns in order.
var Header = []string{
	"ID", "Title", "Source", "URL", "Published At", "City", "Country",
	"Tags", "Credibility", "Status", "Summary", "Fact Check Report",
}

// Row flattens an article into Header order.
func Row(a model.Article) []string {
	published := ""
	if !a.PublishedAt.IsZero() {
		published = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		a.ID,
		a.Title,
		a.Source,
		a.URL,
		published,
		a.Location.City,
		a.Location.Country,
		strings.Join(a.Tags, ", "),
		strconv.Itoa(a.CredibilityScore),
		string(a.Status),
		a.Summary,
		a.FactCheckReport,
	}
}

// WriteXLSX writes articles to a new workbook at path.
func WriteXLSX(path string, articles []model.Article) error {
	f := xlsx.NewFile()
	if err := fillSheet(f, articles); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

// EncodeXLSX writes the workbook to w.
func EncodeXLSX(w io.Writer, articles []model.Article) error {
	f := xlsx.NewFile()
	if err := fillSheet(f, articles); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write")
	}
	return nil
}

func fillSheet(f *xlsx.File, articles []model.Article) error {
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, a := range articles {
		row := sheet.AddRow()
		for i, v := range Row(a) {
			cell := row.AddCell()
			// Keep credibility numeric so spreadsheets can sort on it.
			if Header[i] == "Credibility" {
				cell.SetInt(a.CredibilityScore)
				continue
			}
			cell.SetString(v)
		}
	}
	return nil
}

// WriteCSV writes a header row followed by one row per article.
func WriteCSV(w io.Writer, articles []model.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, a := range articles {
		if err := cw.Write(Row(a)); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}
