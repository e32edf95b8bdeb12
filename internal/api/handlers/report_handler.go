package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"tx-monitor/internal/api/middlew"
	"tx-monitor/internal/models"
	"tx-monitor/internal/service"
	"tx-monitor/pkg/response"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReportHandler собирает сводный PDF-отчет по всем транзакциям и
// неуспешным платежам. Чисто презентационный слой поверх сервиса.
type ReportHandler struct {
	service service.Transactions
}

func NewReportHandler(service service.Transactions) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

// PaymentsReport godoc
// @Summary      Сводный PDF-отчет
// @Description  Все транзакции и неуспешные платежи одним документом
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/pdf
// @Success      200
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /reports/payments [get]
func (h *ReportHandler) PaymentsReport(w http.ResponseWriter, r *http.Request) {
	const op = "handler.PaymentsReport"
	log := middlew.GetLogger(r.Context())

	// Выгрузка финансового отчета атрибутируется оператору
	operatorID, err := middlew.GetOperatorID(r.Context())
	if err != nil {
		log.Warn("report requested without operator", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	transactions, err := h.service.ListAll(r.Context())
	if err != nil {
		log.Error("failed to list transactions", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to build report")
		return
	}

	payments, err := h.service.ListFailedPayments(r.Context())
	if err != nil {
		log.Error("failed to list failed payments", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to build report")
		return
	}

	revenue, err := h.service.Revenue(r.Context())
	if err != nil {
		log.Error("failed to aggregate revenue", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to build report")
		return
	}

	pdf := buildPaymentsPDF(transactions, payments, revenue)

	log.Info("payments report generated",
		slog.String("op", op),
		slog.String("operator_id", operatorID.String()),
		slog.Int("transactions", len(transactions)),
		slog.Int("failed_payments", len(payments)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payments_report.pdf"`)

	if err := pdf.Output(w); err != nil {
		log.Error("failed to write PDF", slog.String("op", op), slog.String("error", err.Error()))
	}
}

func buildPaymentsPDF(transactions []*models.Transaction, payments []*models.FailedPayment, revenue decimal.Decimal) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payments Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 8, "Generated at "+time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Transactions")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(52, 7, "ID", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(18, 7, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 7, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(15, 7, "Fraud", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 7, "Date", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, t := range transactions {
		fraud := ""
		if t.IsFraud {
			fraud = "YES"
		}
		pdf.CellFormat(52, 6, t.ID.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, "$"+t.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, string(t.TransactionType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, truncate(t.Description, 38), "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fraud, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, t.CreatedAt.Format("2006-01-02"), "1", 1, "L", false, 0, "")
	}
	if len(transactions) == 0 {
		pdf.Cell(0, 6, "No transactions recorded.")
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Cell(0, 6, "Total revenue: $"+revenue.StringFixed(2))
	pdf.Ln(6)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Failed Payments")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(25, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 7, "Error", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Customer", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Email", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Date", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, p := range payments {
		pdf.CellFormat(25, 6, "$"+p.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, truncate(p.ErrorMessage, 42), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, truncate(strOrDash(p.CustomerRef), 26), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, truncate(strOrDash(p.Email), 26), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, p.CreatedAt.Format("2006-01-02"), "1", 1, "L", false, 0, "")
	}
	if len(payments) == 0 {
		pdf.Cell(0, 6, "No failed payments recorded.")
		pdf.Ln(6)
	}

	return pdf
}

// truncate режет по рунам: срез по байтам ломает многобайтовые символы
// посреди последовательности
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
