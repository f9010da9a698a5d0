package farmers

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
)

// Input is the editable part of a farmer profile.
type Input struct {
	Name          string
	LicensePlates []string
}

// Service implements farmer CRUD and the plate directory sync.
type Service struct {
	repo   repository.FarmerRepository
	audit  activity.Recorder
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the farmer directory.
func NewService(repo repository.FarmerRepository, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns all farmers sorted by name.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.Farmer, error) {
	if err := access.Authorize(actor, access.FarmerRead); err != nil {
		return nil, err
	}
	farmers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list farmers: %w", err)
	}
	return farmers, nil
}

// Create adds a farmer.
func (s *Service) Create(ctx context.Context, actor models.Actor, in Input) (models.Farmer, error) {
	if err := access.Authorize(actor, access.FarmerManage); err != nil {
		return models.Farmer{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Farmer{}, models.Validationf("name is required")
	}

	now := s.now().UTC()
	farmer := models.Farmer{
		Name:          name,
		LicensePlates: normalizePlates(in.LicensePlates),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &farmer); err != nil {
		return models.Farmer{}, fmt.Errorf("create farmer: %w", err)
	}
	s.audit.Record(ctx, actor, models.ActionAddFarmer, fmt.Sprintf("Added farmer %s", farmer.Name))
	return farmer, nil
}

// Update replaces name and plates of an existing farmer.
func (s *Service) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, in Input) (models.Farmer, error) {
	if err := access.Authorize(actor, access.FarmerManage); err != nil {
		return models.Farmer{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Farmer{}, models.Validationf("name is required")
	}

	farmer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.Farmer{}, notFound(err, id)
	}
	farmer.Name = name
	farmer.LicensePlates = normalizePlates(in.LicensePlates)
	farmer.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &farmer); err != nil {
		return models.Farmer{}, notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionUpdateFarmer, fmt.Sprintf("Updated farmer %s", farmer.Name))
	return farmer, nil
}

// Delete removes a farmer. Bills naming the farmer are untouched.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := access.Authorize(actor, access.FarmerManage); err != nil {
		return err
	}
	farmer, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFound(err, id)
	}
	s.audit.Record(ctx, actor, models.ActionDeleteFarmer, fmt.Sprintf("Deleted farmer %s", farmer.Name))
	return nil
}

// SyncPlate records plate on the farmer whose name exactly equals ownerName,
// creating the farmer when none matches. Names are not normalized, so
// spelling variants stay distinct farmers.
func (s *Service) SyncPlate(ctx context.Context, ownerName, plate string) error {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil
	}

	now := s.now().UTC()
	farmer, err := s.repo.FindByName(ctx, ownerName)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		farmer = models.Farmer{
			Name:          ownerName,
			LicensePlates: []string{plate},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, &farmer); err != nil {
			return fmt.Errorf("create farmer %s: %w", ownerName, err)
		}
		s.logger.Debug("farmer created from bill", zap.String("name", ownerName), zap.String("plate", plate))
		return nil
	case err != nil:
		return fmt.Errorf("find farmer %s: %w", ownerName, err)
	}

	if farmer.HasPlate(plate) {
		return nil
	}
	farmer.LicensePlates = append(farmer.LicensePlates, plate)
	farmer.UpdatedAt = now
	if err := s.repo.Update(ctx, &farmer); err != nil {
		return fmt.Errorf("append plate to farmer %s: %w", ownerName, err)
	}
	s.logger.Debug("plate appended to farmer", zap.String("name", ownerName), zap.String("plate", plate))
	return nil
}

func normalizePlates(plates []string) []string {
	out := make([]string, 0, len(plates))
	seen := make(map[string]struct{}, len(plates))
	for _, p := range plates {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func notFound(err error, id primitive.ObjectID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: farmer %s", models.ErrNotFound, id.Hex())
	}
	return err
}
