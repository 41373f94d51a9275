package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/indiancoinstore/coinstore-backend/config"
	"github.com/indiancoinstore/coinstore-backend/internal/app/repository"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	"github.com/indiancoinstore/coinstore-backend/internal/db"
)

const usage = `Usage:
  go run cmd/catalog/main.go export <out.xlsx>   write the bundled catalog as a workbook
  go run cmd/catalog/main.go check <in.xlsx>     validate a workbook for CATALOG_XLSX_PATH
  go run cmd/catalog/main.go carts               count carts saved in postgres`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	case "carts":
		err = runCarts()
	default:
		log.Fatal(usage)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runExport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("export needs an output path")
	}
	c, err := catalog.Default()
	if err != nil {
		return err
	}

	f, err := catalog.ExportXLSX(c)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(args[0]); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}
	fmt.Printf("Exported %d products to %s\n", c.Len(), args[0])
	return nil
}

func runCheck(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("check needs a workbook path")
	}

	fmt.Printf("Reading XLSX file: %s\n", args[0])
	c, err := catalog.LoadXLSX(args[0])
	if err != nil {
		return err
	}

	perCategory := map[string]int{}
	var lowest, highest float64
	for i, p := range c.All() {
		perCategory[string(p.Category)]++
		if i == 0 || p.Price < lowest {
			lowest = p.Price
		}
		if p.Price > highest {
			highest = p.Price
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Products: %d\n", c.Len())
	if c.Len() > 0 {
		fmt.Printf("  Price range: %s to %s\n", cart.FormatRupees(lowest), cart.FormatRupees(highest))
	}

	categories := make([]string, 0, len(perCategory))
	for name := range perCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		label := name
		if label == "" {
			label = "(none)"
		}
		fmt.Printf("  %s: %d\n", label, perCategory[name])
	}
	return nil
}

func runCarts() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	n, err := repository.NewCartSnapshotRepository(db.GetDB()).Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Saved carts: %d\n", n)
	return nil
}
