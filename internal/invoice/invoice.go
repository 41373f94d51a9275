// Package invoice renders order snapshots into printable XLSX invoices.
package invoice

import (
	"fmt"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Invoice"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxItemName = 30
	brandColor  = "8B4513"
	a4PaperSize = 9
)

// Generator holds the shop branding printed on every invoice
type Generator struct {
	ShopName string
	Tagline  string
}

func NewGenerator(shopName, tagline string) *Generator {
	return &Generator{ShopName: shopName, Tagline: tagline}
}

// Filename returns the attachment name for an order
func Filename(orderNumber string) string {
	return fmt.Sprintf("invoice-%s.xlsx", orderNumber)
}

// Generate builds the invoice workbook and returns its bytes
func (g *Generator) Generate(order model.Order, customer model.Customer) ([]byte, error) {
	f, err := g.Build(order, customer)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// Build lays out the invoice sheet. The caller owns the returned file.
func (g *Generator) Build(order model.Order, customer model.Customer) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := g.layout(f, order, customer); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to build invoice %s: %w", order.OrderNumber, err)
	}
	return f, nil
}

func (g *Generator) layout(f *excelize.File, order model.Order, customer model.Customer) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}
	w := &sheetWriter{f: f}

	w.text("A1", toUpper(g.ShopName), styles.title)
	w.text("A2", "INVOICE", styles.bold)
	w.text("A4", "Order Number: "+order.OrderNumber, 0)
	w.text("A5", "Date: "+order.Date.Format("2/1/2006"), 0)

	w.text("A7", "BILL TO:", styles.bold)
	w.text("A8", "Name: "+customer.Name, 0)
	w.text("A9", "Email: "+customer.Email, 0)
	w.text("A10", "Phone: "+customer.Phone, 0)
	w.text("A11", "Address: "+joinAddress(customer), styles.wrap)
	w.merge("A11", "D11")

	headerRow := 13
	for col, h := range []string{"Item", "Qty", "Price", "Total"} {
		w.textAt(col+1, headerRow, h, styles.header)
	}

	row := headerRow + 1
	for _, line := range order.Items {
		w.textAt(1, row, truncate(line.Name, maxItemName), styles.cell)
		w.intAt(2, row, line.Quantity, styles.qty)
		w.textAt(3, row, cart.FormatRupees(line.Price), styles.amount)
		w.textAt(4, row, cart.FormatRupees(line.LineTotal()), styles.amount)
		row++
	}

	row++
	w.textAt(1, row, "Grand Total: "+cart.FormatRupees(order.TotalAmount), styles.bold)
	row += 2
	w.textAt(1, row, "Thank you for your purchase!", styles.footer)
	w.textAt(1, row+1, footerLine(g.ShopName, g.Tagline), styles.footer)

	if w.err != nil {
		return w.err
	}
	return pageSetup(f, headerRow)
}

type styleSet struct {
	title, bold, wrap, header, cell, qty, amount, footer int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var (
		s   styleSet
		err error
	)
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 18, Color: brandColor}}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&s.wrap, &excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 9, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{brandColor}, Pattern: 1},
			Border: border,
		}},
		{&s.cell, &excelize.Style{Font: &excelize.Font{Size: 8}, Border: border}},
		{&s.qty, &excelize.Style{Font: &excelize.Font{Size: 8}, Border: border, Alignment: &excelize.Alignment{Horizontal: "center"}}},
		{&s.amount, &excelize.Style{Font: &excelize.Font{Size: 8}, Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&s.footer, &excelize.Style{Font: &excelize.Font{Size: 8, Italic: true}}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, err
		}
	}
	return s, nil
}

// pageSetup prints on A4 portrait and repeats the table header on each page
func pageSetup(f *excelize.File, headerRow int) error {
	widths := map[string]float64{"A": 48, "B": 8, "C": 16, "D": 16}
	for col, w := range widths {
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return err
		}
	}

	size := a4PaperSize
	orientation := "portrait"
	if err := f.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
	}); err != nil {
		return err
	}

	return f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: fmt.Sprintf("'%s'!$%d:$%d", SheetName, headerRow, headerRow),
		Scope:    SheetName,
	})
}

// sheetWriter keeps the first error so the layout reads top to bottom
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) text(cell, value string, style int) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetCellStr(SheetName, cell, value); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(SheetName, cell, cell, style)
	}
}

func (w *sheetWriter) textAt(col, row int, value string, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.text(cell, value, style)
}

func (w *sheetWriter) intAt(col, row, value, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if w.err = w.f.SetCellValue(SheetName, cell, value); w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(SheetName, cell, cell, style)
}

func (w *sheetWriter) merge(from, to string) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(SheetName, from, to)
}
