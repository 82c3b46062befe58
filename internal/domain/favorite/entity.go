// internal/domain/favorite/entity.go
package favorite

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Favorite is a saved ad with enough of the listing to render a card.
type Favorite struct {
	AdID         int64           `json:"ad_id" db:"ad_id"`
	Title        string          `json:"title" db:"title"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Currency     string          `json:"currency" db:"currency"`
	Location     string          `json:"location" db:"location"`
	Status       string          `json:"status" db:"status"`
	PrimaryImage *string         `json:"primary_image,omitempty" db:"primary_image"`
	SavedAt      time.Time       `json:"saved_at" db:"created_at"`
}

type Repository interface {
	Add(ctx context.Context, userID, adID int64) error
	Remove(ctx context.Context, userID, adID int64) error
	Exists(ctx context.Context, userID, adID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]*Favorite, error)
}
