package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
	"github.com/mamadbah2/canebill/internal/service/activity"
	"github.com/mamadbah2/canebill/internal/service/pricing"
)

// ErrDuplicateBill is returned when a bill number is already recorded.
var ErrDuplicateBill = fmt.Errorf("%w: duplicate bill number", models.ErrConflict)

// FarmerSyncer links a bill's plate to the farmer directory.
type FarmerSyncer interface {
	SyncPlate(ctx context.Context, ownerName, plate string) error
}

// BillSink receives a copy of every new bill.
type BillSink interface {
	AppendBill(ctx context.Context, bill models.Bill) error
}

// CreateInput is a bill as submitted by an operator.
type CreateInput struct {
	BillNumber   string
	OwnerName    string
	QuotaNumber  string
	LicensePlate string
	Date         time.Time
	Type         models.SugarcaneType
	Weight       float64
	FuelCost     float64
	ManualPrice  *float64
}

// UpdateInput is a partial patch; nil fields are left as stored.
type UpdateInput struct {
	BillNumber   *string
	OwnerName    *string
	QuotaNumber  *string
	LicensePlate *string
	Date         *time.Time
	Type         *models.SugarcaneType
	Weight       *float64
	FuelCost     *float64
	ManualPrice  *float64
}

// Service enforces bill invariants on every write.
type Service struct {
	bills    repository.BillRepository
	resolver *pricing.Resolver
	sync     FarmerSyncer
	sink     BillSink
	audit    activity.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the bill service. sync and sink may be nil.
func NewService(bills repository.BillRepository, resolver *pricing.Resolver, sync FarmerSyncer, sink BillSink, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	return &Service{
		bills:    bills,
		resolver: resolver,
		sync:     sync,
		sink:     sink,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates, prices and persists a new bill. Directory sync, the
// sheet export and the audit entry run afterwards and never undo the write.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.Bill, error) {
	if err := access.Authorize(actor, access.BillCreate); err != nil {
		return models.Bill{}, err
	}
	if err := validateCreate(in); err != nil {
		return models.Bill{}, err
	}

	number := strings.TrimSpace(in.BillNumber)
	exists, err := s.exists(ctx, number)
	if err != nil {
		return models.Bill{}, err
	}
	if exists {
		return models.Bill{}, ErrDuplicateBill
	}

	now := s.now().UTC()
	bill := models.Bill{
		BillNumber:   number,
		OwnerName:    strings.TrimSpace(in.OwnerName),
		QuotaNumber:  strings.TrimSpace(in.QuotaNumber),
		LicensePlate: strings.TrimSpace(in.LicensePlate),
		Date:         in.Date.UTC(),
		Type:         in.Type,
		Weight:       in.Weight,
		FuelCost:     in.FuelCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if in.ManualPrice != nil {
		bill.PricePerUnit = *in.ManualPrice
	} else {
		price, err := s.resolver.Resolve(ctx, bill.Type, bill.Date)
		if err != nil {
			return models.Bill{}, fmt.Errorf("resolve price: %w", err)
		}
		bill.PricePerUnit = price
	}
	bill.Recompute()

	if err := s.bills.Create(ctx, &bill); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.Bill{}, ErrDuplicateBill
		}
		return models.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	s.afterCreate(ctx, actor, bill)
	return bill, nil
}

func (s *Service) afterCreate(ctx context.Context, actor models.Actor, bill models.Bill) {
	log := s.logger.With(zap.String("bill_number", bill.BillNumber))

	if s.sync != nil && bill.LicensePlate != "" {
		if err := s.sync.SyncPlate(ctx, bill.OwnerName, bill.LicensePlate); err != nil {
			log.Warn("farmer directory sync failed", zap.Error(err))
		}
	}
	if s.sink != nil {
		if err := s.sink.AppendBill(ctx, bill); err != nil {
			log.Warn("bill export failed", zap.Error(err))
		}
	}
	s.audit.Record(ctx, actor, models.ActionAddBill, fmt.Sprintf("Added bill #%s for %s", bill.BillNumber, bill.OwnerName))
}

// Update applies a partial patch. The unit price is re-resolved only when
// the type or date changed and no manual price was given.
func (s *Service) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, in UpdateInput) (models.Bill, error) {
	if err := access.Authorize(actor, access.BillEdit); err != nil {
		return models.Bill{}, err
	}

	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return models.Bill{}, notFound(err, id)
	}

	if in.BillNumber != nil {
		number := strings.TrimSpace(*in.BillNumber)
		if number == "" {
			return models.Bill{}, models.Validationf("billNumber must not be blank")
		}
		if number != bill.BillNumber {
			exists, err := s.exists(ctx, number)
			if err != nil {
				return models.Bill{}, err
			}
			if exists {
				return models.Bill{}, ErrDuplicateBill
			}
			bill.BillNumber = number
		}
	}
	if in.OwnerName != nil {
		owner := strings.TrimSpace(*in.OwnerName)
		if owner == "" {
			return models.Bill{}, models.Validationf("ownerName must not be blank")
		}
		bill.OwnerName = owner
	}
	if in.QuotaNumber != nil {
		bill.QuotaNumber = strings.TrimSpace(*in.QuotaNumber)
	}
	if in.LicensePlate != nil {
		bill.LicensePlate = strings.TrimSpace(*in.LicensePlate)
	}
	if in.Weight != nil {
		if *in.Weight < 0 {
			return models.Bill{}, models.Validationf("weight must not be negative")
		}
		bill.Weight = *in.Weight
	}
	if in.FuelCost != nil {
		if *in.FuelCost < 0 {
			return models.Bill{}, models.Validationf("fuelCost must not be negative")
		}
		bill.FuelCost = *in.FuelCost
	}

	repriced := false
	if in.Type != nil {
		if !in.Type.Valid() {
			return models.Bill{}, models.Validationf("unknown sugarcaneType %d", *in.Type)
		}
		repriced = repriced || *in.Type != bill.Type
		bill.Type = *in.Type
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return models.Bill{}, models.Validationf("date must not be empty")
		}
		date := in.Date.UTC()
		repriced = repriced || !date.Equal(bill.Date)
		bill.Date = date
	}

	switch {
	case in.ManualPrice != nil:
		if *in.ManualPrice < 0 {
			return models.Bill{}, models.Validationf("manualPrice must not be negative")
		}
		bill.PricePerUnit = *in.ManualPrice
	case repriced:
		price, err := s.resolver.Resolve(ctx, bill.Type, bill.Date)
		if err != nil {
			return models.Bill{}, fmt.Errorf("resolve price: %w", err)
		}
		bill.PricePerUnit = price
	}
	bill.Recompute()
	bill.UpdatedAt = s.now().UTC()

	if err := s.bills.Update(ctx, &bill); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return models.Bill{}, ErrDuplicateBill
		}
		return models.Bill{}, notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionUpdateBill, fmt.Sprintf("Updated bill #%s", bill.BillNumber))
	return bill, nil
}

// Delete removes a bill.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := access.Authorize(actor, access.BillDelete); err != nil {
		return err
	}
	bill, err := s.bills.Delete(ctx, id)
	if err != nil {
		return notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionDeleteBill, fmt.Sprintf("Deleted bill #%s", bill.BillNumber))
	return nil
}

// List returns bills matching filter, newest first.
func (s *Service) List(ctx context.Context, actor models.Actor, filter models.BillFilter) ([]models.Bill, error) {
	if err := access.Authorize(actor, access.BillRead); err != nil {
		return nil, err
	}
	return s.ListAll(ctx, filter)
}

// ListAll lists without an actor. Used by share links and exports, which
// authorize on their own.
func (s *Service) ListAll(ctx context.Context, filter models.BillFilter) ([]models.Bill, error) {
	bills, err := s.bills.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// CheckDuplicate reports whether billNumber is already recorded.
func (s *Service) CheckDuplicate(ctx context.Context, actor models.Actor, billNumber string) (bool, error) {
	if err := access.Authorize(actor, access.BillCheckDuplicate); err != nil {
		return false, err
	}
	return s.exists(ctx, strings.TrimSpace(billNumber))
}

func (s *Service) exists(ctx context.Context, number string) (bool, error) {
	_, err := s.bills.FindByNumber(ctx, number)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check bill number: %w", err)
	}
}

func validateCreate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.BillNumber) == "":
		return models.Validationf("billNumber is required")
	case strings.TrimSpace(in.OwnerName) == "":
		return models.Validationf("ownerName is required")
	case in.Date.IsZero():
		return models.Validationf("date is required")
	case !in.Type.Valid():
		return models.Validationf("unknown sugarcaneType %d", in.Type)
	case in.Weight < 0:
		return models.Validationf("weight must not be negative")
	case in.FuelCost < 0:
		return models.Validationf("fuelCost must not be negative")
	case in.ManualPrice != nil && *in.ManualPrice < 0:
		return models.Validationf("manualPrice must not be negative")
	}
	return nil
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: bill %s", models.ErrNotFound, id.Hex())
	}
	return err
}
