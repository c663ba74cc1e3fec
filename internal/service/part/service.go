package part

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/broce-labs/partsline/internal/auth"
	"github.com/broce-labs/partsline/internal/cache"
	"github.com/broce-labs/partsline/internal/config"
	"github.com/broce-labs/partsline/internal/entity"
	"github.com/broce-labs/partsline/internal/permission"
	repo "github.com/broce-labs/partsline/internal/repository/part"
	"github.com/broce-labs/partsline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/broce-labs/partsline/service/part")

// Service owns the parts catalogue: reference data readable by any
// authenticated user, mutable only by admins.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// CreateInput carries a fully specified new part.
type CreateInput struct {
	Number      string
	Description string
	Cost        float64
	ImageURL    string
}

// Create adds a part to the catalogue. All four fields are required here,
// unlike the placeholder rows the order path creates for unknown numbers.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, input CreateInput) (*entity.Part, error) {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return nil, err
	}
	if input.Number == "" {
		return nil, errorbank.BadRequest("no number provided")
	}
	if input.Description == "" {
		return nil, errorbank.BadRequest("no description provided")
	}
	if input.Cost <= 0 {
		return nil, errorbank.BadRequest("no cost provided")
	}
	if input.ImageURL == "" {
		return nil, errorbank.BadRequest("no image_url provided")
	}

	ctx, span := serviceTracer.Start(ctx, "PartService.Create", trace.WithAttributes(attribute.String("part.number", input.Number)))
	defer span.End()

	now := time.Now().UTC()
	part := &entity.Part{
		Number:      input.Number,
		Description: input.Description,
		Cost:        input.Cost,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, part); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("part creation failed", zap.String("number", input.Number), zap.Error(err))
		return nil, errorbank.Internal("failed to create part", errorbank.WithCause(err))
	}
	return part, nil
}

// Get returns one part by id, consulting the cache first.
func (s *Service) Get(ctx context.Context, principal *auth.Principal, id int64) (*entity.Part, error) {
	if err := permission.Authorize(principal, permission.MinimumRoleAnyOf(auth.RoleClient, auth.RoleAdmin)); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "PartService.Get", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	if part, err := s.getFromCache(ctx, id); err == nil {
		return part, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("parts cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	part, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("part not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("part load failed", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("failed to load part", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, part); err != nil {
		s.logger.Warn("parts cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return part, nil
}

// List returns the whole catalogue.
func (s *Service) List(ctx context.Context, principal *auth.Principal) ([]*entity.Part, error) {
	if err := permission.Authorize(principal, permission.MinimumRoleAnyOf(auth.RoleClient, auth.RoleAdmin)); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "PartService.List")
	defer span.End()

	parts, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("part list failed", zap.Error(err))
		return nil, errorbank.Internal("failed to list parts", errorbank.WithCause(err))
	}
	return parts, nil
}

// Patch carries the whitelisted mutable part columns.
type Patch struct {
	Number      *string
	Description *string
	Cost        *float64
	ImageURL    *string
}

// Update patches the whitelisted part fields.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, id int64, patch Patch) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "PartService.Update", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	part, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("part not found")
		}
		return errorbank.Internal("failed to load part", errorbank.WithCause(err))
	}

	columns := make([]string, 0, 5)
	if patch.Number != nil {
		part.Number = *patch.Number
		columns = append(columns, "number")
	}
	if patch.Description != nil {
		part.Description = *patch.Description
		columns = append(columns, "description")
	}
	if patch.Cost != nil {
		part.Cost = *patch.Cost
		columns = append(columns, "cost")
	}
	if patch.ImageURL != nil {
		part.ImageURL = *patch.ImageURL
		columns = append(columns, "image_url")
	}
	if len(columns) == 0 {
		return nil
	}
	part.UpdatedAt = time.Now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.Update(ctx, part, columns...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("part update failed", zap.Int64("id", id), zap.Error(err))
		return errorbank.Internal("failed to update part", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return nil
}

// Delete removes a part from the catalogue.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := permission.Authorize(principal, permission.MinimumRole(auth.RoleAdmin)); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "PartService.Delete", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("part not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("part delete failed", zap.Int64("id", id), zap.Error(err))
		return errorbank.Internal("failed to delete part", errorbank.WithCause(err))
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("parts:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Part, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var part entity.Part
	if err := json.Unmarshal(bytes, &part); err != nil {
		return nil, err
	}
	return &part, nil
}

func (s *Service) storeInCache(ctx context.Context, part *entity.Part) error {
	if s.cache == nil || part == nil {
		return nil
	}
	bytes, err := json.Marshal(part)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(part.ID), bytes, s.cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("parts cache invalidate failed", zap.Int64("id", id), zap.Error(err))
	}
}
