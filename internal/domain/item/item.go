package item

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentalflow/service-rental/pkg/domain"
)

// Category classifies a rental item.
type Category string

const (
	CategoryVehicle   Category = "vehicle"
	CategoryEquipment Category = "equipment"
	CategoryProperty  Category = "property"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryVehicle, CategoryEquipment, CategoryProperty:
		return true
	}
	return false
}

// Item is the aggregate root for a rental item listing. Identity and owner
// are immutable; the rate card and active flag may change over time, which is
// why bookings snapshot pricing at creation.
type Item struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	title       string
	description string
	category    Category
	city        string

	dailyRate       float64
	weeklyRate      float64
	monthlyRate     float64
	securityDeposit float64

	images   []string
	isActive bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewItem creates a new active rental item with validated fields.
func NewItem(
	ownerID uuid.UUID,
	title, description string,
	category Category,
	city string,
	dailyRate, weeklyRate, monthlyRate, securityDeposit float64,
	images []string,
) (*Item, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("item title is required")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("invalid item category: " + string(category))
	}
	if dailyRate <= 0 {
		return nil, domain.NewValidationError("daily rate must be positive")
	}
	if securityDeposit < 0 {
		return nil, domain.NewValidationError("security deposit cannot be negative")
	}

	now := time.Now().UTC()
	return &Item{
		id:              uuid.New(),
		ownerID:         ownerID,
		title:           title,
		description:     description,
		category:        category,
		city:            city,
		dailyRate:       dailyRate,
		weeklyRate:      weeklyRate,
		monthlyRate:     monthlyRate,
		securityDeposit: securityDeposit,
		images:          images,
		isActive:        true,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	title, description string,
	category Category,
	city string,
	dailyRate, weeklyRate, monthlyRate, securityDeposit float64,
	images []string,
	isActive bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:              id,
		ownerID:         ownerID,
		title:           title,
		description:     description,
		category:        category,
		city:            city,
		dailyRate:       dailyRate,
		weeklyRate:      weeklyRate,
		monthlyRate:     monthlyRate,
		securityDeposit: securityDeposit,
		images:          images,
		isActive:        isActive,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

func (i *Item) ID() uuid.UUID            { return i.id }
func (i *Item) OwnerID() uuid.UUID       { return i.ownerID }
func (i *Item) Title() string            { return i.title }
func (i *Item) Description() string      { return i.description }
func (i *Item) Category() Category       { return i.category }
func (i *Item) City() string             { return i.city }
func (i *Item) DailyRate() float64       { return i.dailyRate }
func (i *Item) WeeklyRate() float64      { return i.weeklyRate }
func (i *Item) MonthlyRate() float64     { return i.monthlyRate }
func (i *Item) SecurityDeposit() float64 { return i.securityDeposit }
func (i *Item) Images() []string         { return i.images }
func (i *Item) IsActive() bool           { return i.isActive }
func (i *Item) Version() int64           { return i.version }
func (i *Item) CreatedAt() time.Time     { return i.createdAt }
func (i *Item) UpdatedAt() time.Time     { return i.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the item belongs to the given owner.
func (i *Item) IsOwnedBy(ownerID uuid.UUID) bool {
	return i.ownerID == ownerID
}

// Update applies partial updates to the listing.
func (i *Item) Update(
	title, description, city string,
	dailyRate, weeklyRate, monthlyRate, securityDeposit float64,
	images []string,
) error {
	if dailyRate < 0 || securityDeposit < 0 {
		return domain.NewValidationError("rates cannot be negative")
	}
	if title != "" {
		i.title = title
	}
	if description != "" {
		i.description = description
	}
	if city != "" {
		i.city = city
	}
	if dailyRate > 0 {
		i.dailyRate = dailyRate
	}
	if weeklyRate > 0 {
		i.weeklyRate = weeklyRate
	}
	if monthlyRate > 0 {
		i.monthlyRate = monthlyRate
	}
	if securityDeposit > 0 {
		i.securityDeposit = securityDeposit
	}
	if images != nil {
		i.images = images
	}
	i.version++
	i.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate removes the item from the marketplace without deleting it.
func (i *Item) Deactivate() {
	i.isActive = false
	i.version++
	i.updatedAt = time.Now().UTC()
}

// Activate returns the item to the marketplace.
func (i *Item) Activate() {
	i.isActive = true
	i.version++
	i.updatedAt = time.Now().UTC()
}
