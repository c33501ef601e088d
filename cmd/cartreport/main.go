package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/neonmart/storefront-backend/config"
	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/internal/app/store"
	pkgredis "github.com/neonmart/storefront-backend/pkg/redis"
	"github.com/xuri/excelize/v2"
)

// Exports every persisted cart from Redis into an XLSX report, one row per
// cart line. Useful for abandoned-cart follow-up and merchandising reviews.
func main() {
	outPath := "cart_report.xlsx"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := pkgredis.Init(&cfg.Redis); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer pkgredis.Close()
	rdb := pkgredis.GetClient()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Session ID", "Line ID", "Product ID", "Variant ID", "Product Name", "Unit Price", "Quantity", "Line Total"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	rowNum := 2
	carts := 0
	skipped := 0

	iter := rdb.Scan(ctx, 0, store.CartKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		sessionID := key[len(store.CartKeyPrefix):]

		data, err := rdb.Get(ctx, key).Bytes()
		if err != nil {
			skipped++
			continue
		}
		cart, err := model.DecodeCart(data)
		if err != nil {
			fmt.Printf("Skipping unparsable cart %s: %v\n", key, err)
			skipped++
			continue
		}
		if len(cart.Items) == 0 {
			continue
		}

		carts++
		for _, line := range cart.Items {
			values := []interface{}{
				sessionID,
				line.ID,
				line.ProductID,
				line.VariantID,
				line.Name,
				line.UnitPrice,
				line.Quantity,
				line.UnitPrice * float64(line.Quantity),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
				f.SetCellValue(sheet, cell, v)
			}
			rowNum++
		}
	}
	if err := iter.Err(); err != nil {
		log.Fatal("Failed to scan carts:", err)
	}

	if err := f.SaveAs(outPath); err != nil {
		log.Fatal("Failed to write report:", err)
	}

	fmt.Printf("Report written to %s (%d carts, %d lines, %d skipped)\n", outPath, carts, rowNum-2, skipped)
}
