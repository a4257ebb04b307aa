package store

import (
	"context"
	"errors"
	"time"

	"github.com/happyshelf/backend/internal/models"
)

// Sentinel errors shared by every backend. Handlers map these onto HTTP
// statuses; anything else is treated as a backing-store failure.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUnavailable    = errors.New("backing store unavailable")
)

// UserStore persists account records.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ItemPatch is a partial update: nil fields are left untouched. SetExpiry
// marks that the expiry date should change, including to nil (cleared).
type ItemPatch struct {
	Name       *string
	Category   *string
	Quantity   *int
	DailyUsage *float64
	ExpiryDate *time.Time
	SetExpiry  bool
}

// ItemStore persists inventory items. Every operation except Insert is
// scoped by the owning user: an id that exists under another owner behaves
// exactly like one that does not exist at all.
type ItemStore interface {
	FindByOwner(ctx context.Context, ownerID string) ([]models.InventoryItem, error)
	FindOneScoped(ctx context.Context, id, ownerID string) (*models.InventoryItem, error)
	Insert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	UpdateScoped(ctx context.Context, id, ownerID string, patch ItemPatch) (*models.InventoryItem, error)
	DeleteScoped(ctx context.Context, id, ownerID string) error
}
