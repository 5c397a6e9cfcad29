package services

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

// ExcelService exports tenant data as spreadsheets
type ExcelService struct{}

// NewExcelService creates an exporter
func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ExportOrders renders a tenant's orders as an .xlsx workbook
func (s *ExcelService) ExportOrders(orders []*models.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Date", "Customer", "Phone", "Address", "Items", "Delivery", "Total", "Status", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, order := range orders {
		var items []string
		for _, item := range order.Items {
			items = append(items, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		}
		values := []any{
			order.ID,
			order.CreatedAt.Format("2006-01-02 15:04"),
			order.CustomerName,
			order.ContactPhone,
			order.CustomerAddress,
			strings.Join(items, ", "),
			order.DeliveryPrice,
			order.TotalPrice,
			order.Status,
			order.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
