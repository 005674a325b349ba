package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	itemDomain "github.com/rentalflow/service-rental/internal/domain/item"
	"github.com/rentalflow/service-rental/pkg/domain"
)

// ItemModel is the GORM model for the items table. Images are stored as a
// jsonb array of URLs.
type ItemModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID         uuid.UUID `gorm:"type:uuid;index;not null"`
	Title           string    `gorm:"not null;size:200"`
	Description     string    `gorm:"size:2000"`
	Category        string    `gorm:"not null;size:20;index"`
	City            string    `gorm:"size:100;index"`
	DailyRate       float64   `gorm:"not null"`
	WeeklyRate      float64   `gorm:"not null;default:0"`
	MonthlyRate     float64   `gorm:"not null;default:0"`
	SecurityDeposit float64   `gorm:"not null;default:0"`
	Images          []string  `gorm:"type:jsonb;serializer:json"`
	IsActive        bool      `gorm:"not null;default:true;index"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ItemModel) TableName() string {
	return "items"
}

// GormItemRepository is the GORM-based implementation of ItemRepository.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository.
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID retrieves an item by its unique identifier.
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", id.String())
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}
	return toDomainItem(&model), nil
}

// FindByOwnerID retrieves all items listed by an owner with pagination,
// including deactivated ones.
func (r *GormItemRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*itemDomain.Item, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ItemModel{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count owner items: %w", err)
	}

	var models []ItemModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find owner items: %w", err)
	}

	return toDomainItems(models), total, nil
}

// Search retrieves active items matching the filter with pagination.
func (r *GormItemRepository) Search(ctx context.Context, filter itemDomain.SearchFilter, page, limit int) ([]*itemDomain.Item, int64, error) {
	base := r.db.WithContext(ctx).Model(&ItemModel{}).Where("is_active = ?", true)
	base = applySearchFilter(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	listQuery := r.db.WithContext(ctx).Where("is_active = ?", true)
	listQuery = applySearchFilter(listQuery, filter)

	var models []ItemModel
	offset := (page - 1) * limit
	if err := listQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search items: %w", err)
	}

	return toDomainItems(models), total, nil
}

// Save persists a new item.
func (r *GormItemRepository) Save(ctx context.Context, it *itemDomain.Item) error {
	if err := r.db.WithContext(ctx).Create(toItemModel(it)).Error; err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Update persists changes to an existing item with optimistic locking.
func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	model := toItemModel(it)

	expectedVersion := it.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":            model.Title,
			"description":      model.Description,
			"city":             model.City,
			"daily_rate":       model.DailyRate,
			"weekly_rate":      model.WeeklyRate,
			"monthly_rate":     model.MonthlyRate,
			"security_deposit": model.SecurityDeposit,
			"images":           model.Images,
			"is_active":        model.IsActive,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("item was modified by another transaction")
	}

	return nil
}

func applySearchFilter(query *gorm.DB, filter itemDomain.SearchFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.MinPrice > 0 {
		query = query.Where("daily_rate >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("daily_rate <= ?", filter.MaxPrice)
	}
	return query
}

// --- Conversion Helpers ---

func toItemModel(it *itemDomain.Item) *ItemModel {
	return &ItemModel{
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
		Version:         it.Version(),
		CreatedAt:       it.CreatedAt(),
		UpdatedAt:       it.UpdatedAt(),
	}
}

func toDomainItem(m *ItemModel) *itemDomain.Item {
	return itemDomain.Reconstruct(
		m.ID,
		m.OwnerID,
		m.Title,
		m.Description,
		itemDomain.Category(m.Category),
		m.City,
		m.DailyRate,
		m.WeeklyRate,
		m.MonthlyRate,
		m.SecurityDeposit,
		m.Images,
		m.IsActive,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainItems(models []ItemModel) []*itemDomain.Item {
	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toDomainItem(&models[i])
	}
	return items
}
