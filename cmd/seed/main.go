package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/app/service"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/xuri/excelize/v2"
)

// Import sheet columns. One row per size; rows sharing a title belong to the
// same product, rows sharing title+color to the same variant.
const (
	colTitle = iota
	colDescription
	colCategory
	colPrice
	colDiscount
	colHSN
	colColor
	colSize
	colSKU
	colStock
	colImage
	columnCount
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	database := db.GetDB()
	productRepo := repository.NewProductRepository(database)
	variantRepo := repository.NewVariantRepository(database)
	stock := service.NewStockService(variantRepo, productRepo)

	imported := 0
	for i := range products {
		if err := productRepo.Create(&products[i]); err != nil {
			fmt.Printf("Failed to import %q: %v\n", products[i].Title, err)
			continue
		}
		if _, err := stock.Recompute(products[i].ID, service.RecomputeOptions{}); err != nil {
			fmt.Printf("Failed to recompute stock for %q: %v\n", products[i].Title, err)
		}
		imported++
	}

	fmt.Println("Import completed.")
	fmt.Printf("Total products imported: %d\n", imported)
}

func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var (
		products     []model.Product
		productIndex = make(map[string]int)                // slug -> products index
		variantIndex = make(map[string]map[string]int)     // slug -> color -> variants index
		seenSKUs     = make(map[string]string)             // sku -> title, for dedupe
		skippedCount int
	)

	// First row is the header.
	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < columnCount-1 {
			skippedCount++
			continue
		}

		title := strings.TrimSpace(row[colTitle])
		category := strings.ToLower(strings.TrimSpace(row[colCategory]))
		color := strings.TrimSpace(row[colColor])
		size := strings.TrimSpace(row[colSize])
		sku := model.NormalizeSKU(row[colSKU])

		if title == "" || color == "" || size == "" || sku == "" {
			skippedCount++
			continue
		}
		if category != string(model.CategoryBangles) && category != string(model.CategoryBracelets) {
			skippedCount++
			continue
		}
		if owner, dup := seenSKUs[sku]; dup {
			fmt.Printf("Skipping row %d: SKU %s already used by %q\n", i+1, sku, owner)
			skippedCount++
			continue
		}

		price, err := strconv.ParseInt(strings.TrimSpace(row[colPrice]), 10, 64)
		if err != nil || price <= 0 {
			skippedCount++
			continue
		}
		discount, _ := strconv.Atoi(strings.TrimSpace(row[colDiscount]))
		if discount < 0 || discount > 100 {
			skippedCount++
			continue
		}
		stock, err := strconv.Atoi(strings.TrimSpace(row[colStock]))
		if err != nil || stock < 0 {
			skippedCount++
			continue
		}

		var image string
		if len(row) > colImage {
			image = strings.TrimSpace(row[colImage])
		}

		slug := service.Slugify(title)
		pi, ok := productIndex[slug]
		if !ok {
			product := model.Product{
				Title:           title,
				Slug:            slug,
				Description:     strings.TrimSpace(row[colDescription]),
				Category:        model.ProductCategory(category),
				Price:           price,
				DiscountPercent: discount,
				HSNCode:         strings.TrimSpace(row[colHSN]),
				IsActive:        true,
			}
			if image != "" {
				product.Images = model.ImageList{{URL: image}}
			}
			products = append(products, product)
			pi = len(products) - 1
			productIndex[slug] = pi
			variantIndex[slug] = make(map[string]int)
		}

		vi, ok := variantIndex[slug][strings.ToLower(color)]
		if !ok {
			variant := model.Variant{
				Color:    color,
				IsActive: true,
			}
			if image != "" {
				variant.Images = model.ImageList{{URL: image}}
			}
			products[pi].Variants = append(products[pi].Variants, variant)
			vi = len(products[pi].Variants) - 1
			variantIndex[slug][strings.ToLower(color)] = vi
		}

		products[pi].Variants[vi].Sizes = append(products[pi].Variants[vi].Sizes, model.VariantSize{
			Size:     size,
			Stock:    stock,
			SKU:      sku,
			IsActive: true,
		})
		seenSKUs[sku] = title
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Products: %d\n", len(products))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return products, nil
}
