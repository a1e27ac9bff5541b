package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// exportRowLimit caps how many rows one PDF export walks through.
const exportRowLimit = 5000

// DocsService renders payment receipts and audit/compliance exports as PDF.
type DocsService struct {
	Payments     PaymentStore
	Catalog      CatalogReader
	Audit        AuditStore
	Compliance   ComplianceStore
	BusinessName string
	RequestID    string
	Now          func() time.Time
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) businessName() string {
	if n := strings.TrimSpace(s.BusinessName); n != "" {
		return n
	}
	return "Medical Spa"
}

// GenerateReceipt renders the receipt for one payment.
func (s DocsService) GenerateReceipt(ctx context.Context, paymentID int64) ([]byte, string, error) {
	p, err := s.Payments.GetWithItems(ctx, paymentID)
	if err != nil {
		return nil, "", err
	}
	client, err := s.Catalog.GetClient(ctx, p.ClientID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", fmt.Sprintf("payment_id=%d", paymentID))
	return buildReceiptPDF(s.businessName(), p, client, s.now())
}

func buildReceiptPDF(business string, p models.Payment, client models.Client, printedAt time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt "+p.TransactionID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(business))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "RECEIPT")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Transaction : %s", p.TransactionID),
		fmt.Sprintf("Date        : %s", utils.FormatDateTime(p.CreatedAt)),
		fmt.Sprintf("Client      : %s", safe(client.FullName(), fmt.Sprintf("#%d", p.ClientID))),
		fmt.Sprintf("Method      : %s", methodLabel(p.PaymentMethod)),
		fmt.Sprintf("Status      : %s", strings.ToUpper(string(p.Status))),
	}
	for _, line := range header {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Qty", "Price", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range p.Items {
		pdf.CellFormat(widths[0], 7, tr(fmt.Sprintf("%s (%s)", it.ItemName, it.ItemType)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, utils.FormatUSD(it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, utils.FormatUSD(it.Subtotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totals := [][2]string{
		{"Subtotal", utils.FormatUSD(p.Subtotal)},
		{"Discount", "-" + utils.FormatUSD(p.DiscountAmount)},
		{"Tax (8.75%)", utils.FormatUSD(p.TaxAmount)},
		{"Tips", utils.FormatUSD(p.Tips)},
	}
	for _, row := range totals {
		pdf.CellFormat(145, 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(145, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, utils.FormatUSD(p.Total), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	if strings.TrimSpace(p.Notes) != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr("Notes: "+p.Notes), "", "", false)
		pdf.Ln(2)
	}
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, "Printed "+utils.FormatDateTime(printedAt)+". Thank you for your visit.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "RECEIPT_" + utils.SafeFilenamePart(p.TransactionID) + ".pdf", nil
}

// ExportAuditLogs renders every audit log matching f (up to exportRowLimit).
func (s DocsService) ExportAuditLogs(ctx context.Context, f models.AuditFilter) ([]byte, string, error) {
	rows := []models.AuditLog{}
	for page := (domain.Pagination{Page: 1, PageSize: 200}); len(rows) < exportRowLimit; page.Page++ {
		batch, total, err := s.Audit.List(ctx, f, page)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, batch...)
		if len(batch) == 0 || len(rows) >= total {
			break
		}
	}
	utils.LogEvent(s.RequestID, "docs", "export_audit_logs", fmt.Sprintf("rows=%d", len(rows)))

	table := make([][]string, 0, len(rows))
	for _, l := range rows {
		table = append(table, []string{
			utils.FormatDateTime(l.CreatedAt),
			idOrDash(l.UserID),
			l.Action,
			fmt.Sprintf("%s %s", l.EntityType, idOrDash(l.EntityID)),
			safe(l.IPAddress, "-"),
			utils.Truncate(l.Details, 70),
		})
	}
	filters := describeAuditFilter(f)
	return buildTablePDF("Audit Log Export", filters, s.now(),
		[]string{"When", "User", "Action", "Entity", "IP", "Details"},
		[]float64{36, 14, 40, 34, 28, 125},
		table,
		"AUDIT_LOGS_"+s.now().Format("20060102_150405")+".pdf")
}

// ExportComplianceAlerts renders compliance alerts matching f.
func (s DocsService) ExportComplianceAlerts(ctx context.Context, f models.ComplianceFilter) ([]byte, string, error) {
	rows := []models.ComplianceAlert{}
	for page := (domain.Pagination{Page: 1, PageSize: 200}); len(rows) < exportRowLimit; page.Page++ {
		batch, total, err := s.Compliance.List(ctx, f, page)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, batch...)
		if len(batch) == 0 || len(rows) >= total {
			break
		}
	}
	utils.LogEvent(s.RequestID, "docs", "export_compliance_alerts", fmt.Sprintf("rows=%d", len(rows)))

	table := make([][]string, 0, len(rows))
	for _, a := range rows {
		table = append(table, []string{
			utils.FormatDateTime(a.CreatedAt),
			idOrDash(a.ClientID),
			a.AlertType,
			strings.ToUpper(a.Severity),
			a.Status,
			utils.Truncate(a.Message, 80),
		})
	}
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+f.Status)
	}
	if f.Severity != "" {
		parts = append(parts, "severity="+f.Severity)
	}
	return buildTablePDF("Compliance Alerts Export", strings.Join(parts, ", "), s.now(),
		[]string{"When", "Client", "Type", "Severity", "Status", "Message"},
		[]float64{36, 16, 40, 22, 24, 139},
		table,
		"COMPLIANCE_ALERTS_"+s.now().Format("20060102_150405")+".pdf")
}

func buildTablePDF(title, filters string, printedAt time.Time, head []string, widths []float64, rows [][]string, filename string) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	drawHead := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for i, h := range head {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d rows", utils.FormatDateTime(printedAt), len(rows)))
	pdf.Ln(6)
	if filters != "" {
		pdf.Cell(0, 6, tr("Filters: "+filters))
		pdf.Ln(6)
	}
	pdf.Ln(2)

	drawHead()
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range rows {
		if pdf.GetY()+6 > pageH-bottom-10 {
			pdf.AddPage()
			drawHead()
		}
		for i, cell := range r {
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No records match the selected filters.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), filename, nil
}

func describeAuditFilter(f models.AuditFilter) string {
	var parts []string
	if f.Action != "" {
		parts = append(parts, "action="+f.Action)
	}
	if f.EntityType != "" {
		parts = append(parts, "entity_type="+f.EntityType)
	}
	if f.UserID > 0 {
		parts = append(parts, fmt.Sprintf("user_id=%d", f.UserID))
	}
	if f.From != nil {
		parts = append(parts, "from="+utils.FormatDate(*f.From))
	}
	if f.To != nil {
		parts = append(parts, "before="+utils.FormatDate(*f.To))
	}
	return strings.Join(parts, ", ")
}

func methodLabel(m models.PaymentMethod) string {
	switch m {
	case models.MethodStripe:
		return "Card (Stripe)"
	case models.MethodCash:
		return "Cash"
	default:
		return string(m)
	}
}

func idOrDash(id int64) string {
	if id <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
