package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionInitialized     = "initialized"
	ActionProductAdded    = "product_added"
	ActionProductRemoved  = "product_removed"
	ActionQuantityChanged = "quantity_changed"
	ActionCleared         = "cleared"
)

// CartUpdatedEvent is emitted after every mutation that changed the cart.
// Totals are carried as decimal strings.
type CartUpdatedEvent struct {
	EventID   string          `json:"event_id"`
	Action    string          `json:"action"`
	ProductID int64           `json:"product_id,omitempty"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}
