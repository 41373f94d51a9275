package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// xlsxColumns maps header names (case-insensitive) to product fields
var xlsxColumns = []string{"id", "name", "price", "image", "period", "metal", "rarity", "category", "description"}

// LoadXLSX reads the first sheet of a workbook whose first row is a header
// naming at least the id, name and price columns. Rows without an id or with
// an unparseable price are skipped.
func LoadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Catalog, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"id", "name", "price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []model.Product
	skipped := 0
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		id := cell(row, "id")
		if id == "" || seen[id] {
			skipped++
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, "price"), ",", ""), 64)
		if err != nil || price < 0 {
			skipped++
			continue
		}
		seen[id] = true
		products = append(products, model.Product{
			ID:          id,
			Name:        cell(row, "name"),
			Price:       price,
			Image:       cell(row, "image"),
			Period:      cell(row, "period"),
			Metal:       cell(row, "metal"),
			Rarity:      cell(row, "rarity"),
			Category:    model.ProductCategory(cell(row, "category")),
			Description: cell(row, "description"),
		})
	}

	logger.Info("Catalog workbook read", map[string]interface{}{
		"sheet":    sheetName,
		"products": len(products),
		"skipped":  skipped,
	})
	return New(products)
}

// ExportXLSX writes the catalog into a new workbook using the same header
// layout LoadXLSX expects, so it can be edited and loaded back.
func ExportXLSX(c *Catalog) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(xlsxColumns))
	for i, h := range xlsxColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, p := range c.products {
		row := []interface{}{p.ID, p.Name, p.Price, p.Image, p.Period, p.Metal, p.Rarity, string(p.Category), p.Description}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}
