package service

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService produces the admin catalog export: one XLSX row per size,
// with product and variant columns repeated.
type ExportService interface {
	ExportCatalog() (*bytes.Buffer, error)
}

type exportService struct {
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
}

func NewExportService(productRepo repository.ProductRepository, variantRepo repository.VariantRepository) ExportService {
	return &exportService{productRepo: productRepo, variantRepo: variantRepo}
}

var exportHeader = []interface{}{
	"Product ID", "Product", "Slug", "Category", "Price (paise)", "Discount %",
	"Color", "Size", "SKU", "Stock", "Size Active", "Variant Active",
}

func (s *exportService) ExportCatalog() (*bytes.Buffer, error) {
	var products []model.Product
	for page := 1; ; page++ {
		batch, total, err := s.productRepo.List(repository.ProductFilter{Page: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		products = append(products, batch...)
		if len(batch) == 0 || int64(len(products)) >= total {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	for i := range products {
		p := &products[i]
		variants, err := s.variantRepo.FindByProductID(p.ID)
		if err != nil {
			return nil, err
		}
		for _, v := range variants {
			for _, size := range v.Sizes {
				cells := []interface{}{
					p.ID, p.Title, p.Slug, string(p.Category), p.Price, p.DiscountPercent,
					v.Color, size.Size, size.SKU, size.Stock, size.IsActive, v.IsActive,
				}
				cell := "A" + strconv.Itoa(row)
				if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
					return nil, fmt.Errorf("failed to write row %d: %w", row, err)
				}
				row++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}
