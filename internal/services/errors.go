package services

import (
	"errors"
	"fmt"

	"github.com/gestorapp/gestor/internal/models"
)

var (
	// ErrInvalidQuantity is returned when a line item quantity is not > 0.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrOrderNotEditable is returned for item writes on a non-pending order.
	ErrOrderNotEditable = errors.New("order is no longer editable")
	// ErrOrderNotFound / ErrProductNotFound wrap missing-row lookups.
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("order item not found")
	// ErrProductInUse guards product deletion while order items reference it.
	ErrProductInUse = errors.New("product is referenced by order items")
	// ErrConcurrentModification signals a lost race on a guarded update.
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// InsufficientStockError carries what callers need to render a user-facing
// message: which product, how much was asked, how much is on hand.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidTransitionError reports an illegal state-machine move.
type InvalidTransitionError struct {
	Current   models.OrderStatus
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %q", e.Attempted, e.Current)
}
