// Package export builds the xlsx downloads of the product and sale
// listings: fixed column headers, one row per record, timestamped
// filename.
package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/forneria/shop/internal/models"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductHeaders are the fixed product export columns, in order.
var ProductHeaders = []string{
	"Nombre", "Categoría", "Tipo", "Precio",
	"Stock actual", "Stock mínimo", "Stock máximo",
	"Fecha caducidad", "Fecha elaboración", "Fecha creación",
}

// SaleHeaders are the fixed sale export columns, in order.
var SaleHeaders = []string{
	"ID", "Folio", "Fecha", "Cliente", "Canal",
	"Total sin IVA", "IVA", "Descuento", "Total con IVA",
	"Monto pagado", "Vuelto",
}

// Filename builds the timestamped download name, e.g.
// productos_20260831_153000.xlsx.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("20060102_150405"))
}

// ProductsWorkbook renders one sheet named Productos with a header row
// and one row per product. Category must be preloaded.
func ProductsWorkbook(products []models.Product) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Productos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 1, toAny(ProductHeaders)); err != nil {
		return nil, err
	}
	for i, p := range products {
		production := ""
		if p.ProductionDate != nil {
			production = p.ProductionDate.Format("2006-01-02")
		}
		price, _ := p.UnitPrice.Float64()
		row := []any{
			p.Name,
			p.Category.Name,
			p.Kind,
			price,
			p.StockCurrent,
			p.StockMin,
			p.StockMax,
			p.ExpiryDate.Format("2006-01-02"),
			production,
			p.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// SalesWorkbook renders one sheet named Ventas. Customer must be
// preloaded on each sale.
func SalesWorkbook(sales []models.Sale) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Ventas"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 1, toAny(SaleHeaders)); err != nil {
		return nil, err
	}
	for i, s := range sales {
		subtotal, _ := s.Subtotal.Float64()
		tax, _ := s.Tax.Float64()
		discount, _ := s.Discount.Float64()
		total, _ := s.Total.Float64()
		paid, _ := s.AmountPaid.Float64()
		change, _ := s.Change.Float64()
		row := []any{
			s.ID,
			s.Folio,
			s.Date.Format("2006-01-02 15:04"),
			s.Customer.Name,
			s.Channel,
			subtotal,
			tax,
			discount,
			total,
			paid,
			change,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Serve writes the workbook as an attachment download.
func Serve(w http.ResponseWriter, f *excelize.File, filename string) error {
	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
