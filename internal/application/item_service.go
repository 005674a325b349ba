package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	itemDomain "github.com/rentalflow/service-rental/internal/domain/item"
	reviewDomain "github.com/rentalflow/service-rental/internal/domain/review"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// CreateItemRequest holds the data needed to list a new item.
type CreateItemRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category" binding:"required"`
	City            string   `json:"city"`
	DailyRate       float64  `json:"daily_rate" binding:"required"`
	WeeklyRate      float64  `json:"weekly_rate"`
	MonthlyRate     float64  `json:"monthly_rate"`
	SecurityDeposit float64  `json:"security_deposit"`
	Images          []string `json:"images"`
}

// UpdateItemRequest holds the mutable fields of an item. Zero values
// leave the current value untouched.
type UpdateItemRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	City            string   `json:"city"`
	DailyRate       float64  `json:"daily_rate"`
	WeeklyRate      float64  `json:"weekly_rate"`
	MonthlyRate     float64  `json:"monthly_rate"`
	SecurityDeposit float64  `json:"security_deposit"`
	Images          []string `json:"images"`
}

// ItemDTO is the response representation of an item.
type ItemDTO struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	City            string    `json:"city"`
	DailyRate       float64   `json:"daily_rate"`
	WeeklyRate      float64   `json:"weekly_rate,omitempty"`
	MonthlyRate     float64   `json:"monthly_rate,omitempty"`
	SecurityDeposit float64   `json:"security_deposit"`
	Images          []string  `json:"images"`
	IsActive        bool      `json:"is_active"`
	AverageRating   float64   `json:"average_rating,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemService is the application service for listing management.
type ItemService struct {
	repo       itemDomain.ItemRepository
	reviewRepo reviewDomain.ReviewRepository
	logger     *zap.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(repo itemDomain.ItemRepository, reviewRepo reviewDomain.ReviewRepository, logger *zap.Logger) *ItemService {
	return &ItemService{
		repo:       repo,
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// CreateItem lists a new item for the owner.
func (s *ItemService) CreateItem(ctx context.Context, ownerID uuid.UUID, req CreateItemRequest) (*ItemDTO, error) {
	category := itemDomain.Category(req.Category)
	it, err := itemDomain.NewItem(
		ownerID,
		req.Title,
		req.Description,
		category,
		req.City,
		req.DailyRate,
		req.WeeklyRate,
		req.MonthlyRate,
		req.SecurityDeposit,
		req.Images,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	result := toItemDTO(it)
	return &result, nil
}

// UpdateItem applies a partial update to an item owned by the caller.
func (s *ItemService) UpdateItem(ctx context.Context, itemID, ownerID uuid.UUID, req UpdateItemRequest) (*ItemDTO, error) {
	it, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("only the owner can update this item")
	}

	if err := it.Update(req.Title, req.Description, req.City, req.DailyRate, req.WeeklyRate, req.MonthlyRate, req.SecurityDeposit, req.Images); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}

	result := toItemDTO(it)
	return &result, nil
}

// DeactivateItem removes an item from search results without deleting it.
// Existing bookings keep their snapshot of the item's pricing.
func (s *ItemService) DeactivateItem(ctx context.Context, itemID, ownerID uuid.UUID) error {
	it, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !it.IsOwnedBy(ownerID) {
		return domain.NewForbiddenError("only the owner can deactivate this item")
	}

	it.Deactivate()
	return s.repo.Update(ctx, it)
}

// GetItem retrieves a single item with its average review rating.
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error) {
	it, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	result := toItemDTO(it)
	if s.reviewRepo != nil {
		if avg, _, err := s.reviewRepo.AverageRating(ctx, it.ID()); err == nil {
			result.AverageRating = avg
		}
	}
	return &result, nil
}

// SearchItems retrieves paginated active items matching the filter.
func (s *ItemService) SearchItems(ctx context.Context, filter itemDomain.SearchFilter, page, limit int) (*domain.PaginatedResult[ItemDTO], error) {
	items, total, err := s.repo.Search(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetOwnerItems retrieves paginated items listed by the owner, including
// deactivated ones.
func (s *ItemService) GetOwnerItems(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[ItemDTO], error) {
	items, total, err := s.repo.FindByOwnerID(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toItemDTO(it *itemDomain.Item) ItemDTO {
	return ItemDTO{
		ID:              it.ID(),
		OwnerID:         it.OwnerID(),
		Title:           it.Title(),
		Description:     it.Description(),
		Category:        string(it.Category()),
		City:            it.City(),
		DailyRate:       it.DailyRate(),
		WeeklyRate:      it.WeeklyRate(),
		MonthlyRate:     it.MonthlyRate(),
		SecurityDeposit: it.SecurityDeposit(),
		Images:          it.Images(),
		IsActive:        it.IsActive(),
		CreatedAt:       it.CreatedAt(),
		UpdatedAt:       it.UpdatedAt(),
	}
}
