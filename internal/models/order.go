package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes sales (stock leaves) from purchases (stock enters).
type OrderKind string

const (
	KindSale     OrderKind = "sale"
	KindPurchase OrderKind = "purchase"
)

// ParseOrderKind validates a kind coming from the boundary.
func ParseOrderKind(s string) (OrderKind, error) {
	switch OrderKind(s) {
	case KindSale, KindPurchase:
		return OrderKind(s), nil
	}
	return "", fmt.Errorf("unknown order kind %q", s)
}

// OrderStatus is the closed order state set. Pending is the only
// non-terminal state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates a status coming from the boundary.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentTransfer    PaymentMethod = "transfer"
	PaymentMercadoPago PaymentMethod = "mercadopago"
)

// ParsePaymentMethod validates a payment method; empty defaults to cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if s == "" {
		return PaymentCash, nil
	}
	switch PaymentMethod(s) {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentMercadoPago:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Order generalizes a sale (client counterparty) and a purchase (supplier
// counterparty). Totals are derived from items and recomputed on every item
// write; outside Pending they are frozen.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Reference string    `gorm:"size:36;not null;uniqueIndex" json:"reference"`
	Kind      OrderKind `gorm:"size:10;not null;index" json:"kind"`

	ClientID   *uint     `gorm:"index" json:"client_id,omitempty"`
	Client     *Client   `gorm:"foreignKey:ClientID" json:"-"`
	SupplierID *uint     `gorm:"index" json:"supplier_id,omitempty"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID" json:"-"`

	UserID        uint          `gorm:"not null;index" json:"user_id"` // creating actor
	PaymentMethod PaymentMethod `gorm:"size:20;not null;default:'cash'" json:"payment_method"`
	Status        OrderStatus   `gorm:"size:15;not null;default:'pending';index" json:"status"`

	NetTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"net_total"`
	TaxTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_total"`
	GrossTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"gross_total"`

	Notes string      `gorm:"size:200" json:"notes"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Editable reports whether line items may still be written.
func (o *Order) Editable() bool { return o.Status == StatusPending }

// OrderItem is one product line. Unit price and tax rate are pinned from the
// product at creation time and never follow later catalog changes.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"-"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"tax_rate"`

	NetAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"net_amount"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"gross_amount"`

	Note      string    `gorm:"size:100" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeAmounts derives net/tax/gross from quantity and the pinned price and
// rate. Tax is rounded to 2 decimal places per line before order totals sum
// the lines, matching the persisted per-line amounts reports rely on.
func (it *OrderItem) ComputeAmounts() {
	qty := decimal.NewFromInt(int64(it.Quantity))
	it.NetAmount = qty.Mul(it.UnitPrice)
	it.TaxAmount = it.NetAmount.Mul(it.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	it.GrossAmount = it.NetAmount.Add(it.TaxAmount)
}
