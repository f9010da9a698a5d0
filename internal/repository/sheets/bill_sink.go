package sheets

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

const dateLayout = "2006-01-02"

// BillSink mirrors every new bill as one spreadsheet row.
type BillSink struct {
	writer     RowWriter
	sheetRange string
	logger     *zap.Logger
}

// NewBillSink wires a sink appending to sheetRange.
func NewBillSink(writer RowWriter, sheetRange string, logger *zap.Logger) *BillSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillSink{writer: writer, sheetRange: sheetRange, logger: logger}
}

// AppendBill writes bill to the sheet.
func (s *BillSink) AppendBill(ctx context.Context, bill models.Bill) error {
	if err := s.writer.WriteRow(ctx, s.sheetRange, BillRow(bill)); err != nil {
		return err
	}
	s.logger.Debug("bill mirrored to sheet", zap.String("bill_number", bill.BillNumber))
	return nil
}

// BillRow lays out a bill in sheet column order.
func BillRow(bill models.Bill) []interface{} {
	return []interface{}{
		bill.BillNumber,
		bill.QuotaNumber,
		bill.OwnerName,
		bill.LicensePlate,
		bill.Date.Format(dateLayout),
		bill.Type.Label(),
		bill.Weight,
		bill.PricePerUnit,
		bill.FuelCost,
		bill.TotalAmount,
		bill.NetAmount,
	}
}
