package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/service/access"
)

const dateLayout = "2006-01-02"

// BillLister supplies the bills a report covers.
type BillLister interface {
	ListAll(ctx context.Context, filter models.BillFilter) ([]models.Bill, error)
}

// Stats aggregates a bill listing.
type Stats struct {
	BillCount     int     `json:"billCount"`
	TotalWeight   float64 `json:"totalWeight"`
	TotalFuelCost float64 `json:"totalFuelCost"`
	TotalAmount   float64 `json:"totalAmount"`
	TotalNet      float64 `json:"totalNet"`
	FreshCount    int     `json:"freshCount"`
	BurntCount    int     `json:"burntCount"`
	LongTopCount  int     `json:"longTopCount"`
}

// Options tune PDF rendering.
type Options struct {
	// FontPath is a UTF-8 TrueType font used for PDF text. When empty the
	// core Arial font is used, which cannot render Thai owner names.
	FontPath string
}

// Service computes statistics and renders exports of the bill listing.
type Service struct {
	bills  BillLister
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(bills BillLister, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{bills: bills, opts: opts, logger: logger, now: time.Now}
}

// Summarize folds bills into totals and per-type counts.
func Summarize(bills []models.Bill) Stats {
	var st Stats
	for _, b := range bills {
		st.BillCount++
		st.TotalWeight += b.Weight
		st.TotalFuelCost += b.FuelCost
		st.TotalAmount += b.TotalAmount
		st.TotalNet += b.NetAmount
		switch b.Type {
		case models.SugarcaneFresh:
			st.FreshCount++
		case models.SugarcaneBurnt:
			st.BurntCount++
		case models.SugarcaneLongTop:
			st.LongTopCount++
		}
	}
	return st
}

// Stats returns aggregates over the bills matching filter.
func (s *Service) Stats(ctx context.Context, actor models.Actor, filter models.BillFilter) (Stats, error) {
	if err := access.Authorize(actor, access.StatsRead); err != nil {
		return Stats{}, err
	}
	bills, err := s.bills.ListAll(ctx, filter)
	if err != nil {
		return Stats{}, fmt.Errorf("load bills for stats: %w", err)
	}
	return Summarize(bills), nil
}

var header = []string{
	"Bill No", "Quota", "Owner", "Plate", "Date", "Type",
	"Weight", "Price/Unit", "Fuel Cost", "Net",
}

func row(b models.Bill, label string) []string {
	return []string{
		b.BillNumber,
		b.QuotaNumber,
		b.OwnerName,
		b.LicensePlate,
		b.Date.Format(dateLayout),
		label,
		formatAmount(b.Weight),
		formatAmount(b.PricePerUnit),
		formatAmount(b.FuelCost),
		formatAmount(b.NetAmount),
	}
}

// ExportCSV renders the bill listing as CSV with Thai type labels.
func (s *Service) ExportCSV(ctx context.Context, actor models.Actor, filter models.BillFilter) ([]byte, error) {
	if err := access.Authorize(actor, access.BillExport); err != nil {
		return nil, err
	}
	bills, err := s.bills.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load bills for csv: %w", err)
	}

	var buf bytes.Buffer
	// BOM so spreadsheet apps detect UTF-8.
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, b := range bills {
		if err := w.Write(row(b, b.Type.Label())); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{22, 22, 48, 28, 24, 24, 24, 26, 26, 33}

// ExportPDF renders the bill listing as a landscape A4 table with a totals row.
func (s *Service) ExportPDF(ctx context.Context, actor models.Actor, filter models.BillFilter) ([]byte, error) {
	if err := access.Authorize(actor, access.BillExport); err != nil {
		return nil, err
	}
	bills, err := s.bills.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load bills for pdf: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	family, unicode := s.font(pdf)
	pdf.AddPage()

	pdf.SetFont(family, "", 16)
	pdf.CellFormat(277, 10, "Sugarcane Bills", "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", s.now().Format("02-Jan-2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(200, 200, 200)
	for i, h := range header {
		pdf.CellFormat(columnWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, b := range bills {
		label := typeName(b.Type)
		if unicode {
			label = b.Type.Label()
		}
		for i, cell := range row(b, label) {
			align := "L"
			if i >= 6 {
				align = "R"
			}
			pdf.CellFormat(columnWidths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	st := Summarize(bills)
	pdf.Ln(4)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(92, 8, fmt.Sprintf("Bills: %d", st.BillCount), "1", 0, "C", true, 0, "")
	pdf.CellFormat(92, 8, fmt.Sprintf("Total weight: %s", formatAmount(st.TotalWeight)), "1", 0, "C", true, 0, "")
	pdf.CellFormat(93, 8, fmt.Sprintf("Total net: %s", formatAmount(st.TotalNet)), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) font(pdf *gofpdf.Fpdf) (string, bool) {
	if s.opts.FontPath == "" {
		return "Arial", false
	}
	if _, err := os.Stat(s.opts.FontPath); err != nil {
		s.logger.Warn("pdf font unavailable, falling back to Arial", zap.String("path", s.opts.FontPath), zap.Error(err))
		return "Arial", false
	}
	pdf.AddUTF8Font("body", "", s.opts.FontPath)
	if err := pdf.Error(); err != nil {
		s.logger.Warn("pdf font unavailable, falling back to Arial", zap.String("path", s.opts.FontPath), zap.Error(err))
		pdf.ClearError()
		return "Arial", false
	}
	return "body", true
}

func typeName(t models.SugarcaneType) string {
	switch t {
	case models.SugarcaneFresh:
		return "Fresh"
	case models.SugarcaneBurnt:
		return "Burnt"
	case models.SugarcaneLongTop:
		return "Long top"
	default:
		return "-"
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
