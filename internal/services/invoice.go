package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/amraniy/whatsbot-backend/internal/models"
)

// invoiceLabels localizes the invoice strings. Core PDF fonts cannot shape
// Arabic, so "ar" tenants get the English label set.
var invoiceLabels = map[string]map[string]string{
	"en": {
		"title": "INVOICE", "customer": "Customer", "address": "Address",
		"item": "Item", "qty": "Qty", "price": "Price", "amount": "Amount",
		"delivery": "Delivery", "total": "Total", "notes": "Notes",
		"thanks": "Thank you for your order!",
	},
	"fr": {
		"title": "FACTURE", "customer": "Client", "address": "Adresse",
		"item": "Article", "qty": "Qte", "price": "Prix", "amount": "Montant",
		"delivery": "Livraison", "total": "Total", "notes": "Notes",
		"thanks": "Merci pour votre commande !",
	},
	"de": {
		"title": "RECHNUNG", "customer": "Kunde", "address": "Adresse",
		"item": "Artikel", "qty": "Menge", "price": "Preis", "amount": "Betrag",
		"delivery": "Lieferung", "total": "Gesamt", "notes": "Notizen",
		"thanks": "Vielen Dank fur Ihre Bestellung!",
	},
}

// InvoiceService renders order invoices to temporary PDF files
type InvoiceService struct{}

// NewInvoiceService creates an invoice renderer
func NewInvoiceService() *InvoiceService {
	return &InvoiceService{}
}

// Render writes an invoice PDF to a temp file and returns its path.
// The caller owns the file and must remove it when done.
func (s *InvoiceService) Render(user *models.User, order *models.Order) (string, error) {
	labels, ok := invoiceLabels[user.Language]
	if !ok {
		labels = invoiceLabels["en"]
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	store := user.StoreName
	if store == "" {
		store = "Store"
	}
	pdf.CellFormat(0, 10, tr(store), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, labels["title"]+fmt.Sprintf(" #%d", order.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Customer block
	pdf.SetFont("Helvetica", "", 11)
	if order.CustomerName != "" {
		pdf.CellFormat(0, 6, labels["customer"]+": "+tr(order.CustomerName), "", 1, "L", false, 0, "")
	}
	if order.CustomerAddress != "" {
		pdf.CellFormat(0, 6, labels["address"]+": "+tr(order.CustomerAddress), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, order.ContactPhone, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, labels["item"], "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, labels["qty"], "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, labels["price"], "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, labels["amount"], "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	var subtotal float64
	for _, item := range order.Items {
		amount := float64(item.Quantity) * item.Price
		subtotal += amount
		pdf.CellFormat(90, 8, tr(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", amount), "1", 1, "R", false, 0, "")
	}

	// Totals
	pdf.SetFont("Helvetica", "B", 11)
	if order.DeliveryPrice > 0 {
		pdf.CellFormat(150, 8, labels["delivery"], "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", order.DeliveryPrice), "1", 1, "R", false, 0, "")
	}
	total := order.TotalPrice
	if total == 0 {
		total = subtotal + order.DeliveryPrice
	}
	pdf.CellFormat(150, 8, labels["total"], "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", total), "1", 1, "R", false, 0, "")

	if order.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, labels["notes"]+": "+tr(order.Notes), "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, labels["thanks"], "", 1, "C", false, 0, "")

	path := filepath.Join(os.TempDir(), fmt.Sprintf("invoice_%s.pdf", uuid.NewString()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return path, nil
}
