package e2e

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/xuri/excelize/v2"
)

// listingHeader mirrors the column names of the scraped listing exports.
var listingHeader = []string{
	"Name", "Address", "Area", "City", "State", "Phone", "Website",
	"Category", "Sub Category", "Reviews", "Rating",
}

func listingRow(b *models.BusinessRecord) []string {
	rating := ""
	if b.ReviewsAverage != nil {
		rating = strconv.FormatFloat(*b.ReviewsAverage, 'f', -1, 64)
	}
	return []string{
		b.Name, b.Address, b.Area, b.City, b.State, b.PhoneNumber, b.Website,
		b.Category, b.Subcategory, strconv.Itoa(b.ReviewsCount), rating,
	}
}

// WriteListingsXLSX writes businesses as a listing workbook at path.
func WriteListingsXLSX(path string, businesses []*models.BusinessRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := make([][]string, 0, len(businesses)+1)
	rows = append(rows, listingHeader)
	for _, b := range businesses {
		rows = append(rows, listingRow(b))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// WriteListingsCSV writes businesses as a listing CSV at path.
func WriteListingsCSV(path string, businesses []*models.BusinessRecord) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	if err := w.Write(listingHeader); err != nil {
		return err
	}
	for _, b := range businesses {
		if err := w.Write(listingRow(b)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
