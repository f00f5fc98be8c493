// Package ingest reads business listings exported as spreadsheets.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoNameColumn is returned when a sheet has no name/title column.
var ErrNoNameColumn = errors.New("listing sheet has no name column")

// columnAliases maps normalized header text to catalog columns.
var columnAliases = map[string]string{
	"name":            "name",
	"title":           "name",
	"address":         "address",
	"area":            "area",
	"city":            "city",
	"state":           "state",
	"phone_number":    "phone_number",
	"phone":           "phone_number",
	"website":         "website",
	"category":        "category",
	"subcategory":     "subcategory",
	"sub_category":    "subcategory",
	"reviews_count":   "reviews_count",
	"reviews":         "reviews_count",
	"reviews_average": "reviews_average",
	"rating":          "reviews_average",
	"created_at":      "created_at",
}

// ReadListings reads an .xlsx (first sheet) or .csv file into business records.
// Rows without a name are skipped. Malformed numbers become absent values.
func ReadListings(path string) ([]*models.BusinessRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported listing format: %s", filepath.Ext(path))
	}
}

func readXLSX(path string) ([]*models.BusinessRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// ReadCSV reads comma-separated listings with a header row.
func ReadCSV(r io.Reader) ([]*models.BusinessRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]*models.BusinessRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	columns := make([]string, len(rows[0]))
	hasName := false
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		columns[i] = columnAliases[key]
		if columns[i] == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrNoNameColumn
	}

	out := make([]*models.BusinessRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		b := &models.BusinessRecord{}
		for i, cell := range row {
			if i >= len(columns) {
				break
			}
			assign(b, columns[i], strings.TrimSpace(cell))
		}
		if b.Name == "" {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func assign(b *models.BusinessRecord, column, value string) {
	switch column {
	case "name":
		if b.Name == "" {
			b.Name = value
		}
	case "address":
		b.Address = value
	case "area":
		b.Area = value
	case "city":
		b.City = value
	case "state":
		b.State = value
	case "phone_number":
		b.PhoneNumber = value
	case "website":
		b.Website = value
	case "category":
		b.Category = value
	case "subcategory":
		b.Subcategory = value
	case "reviews_count":
		b.ReviewsCount = models.ParseReviewCount(value)
	case "reviews_average":
		b.ReviewsAverage = models.ParseRating(value)
	case "created_at":
		b.CreatedAt = value
	}
}
