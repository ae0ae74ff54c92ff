package services

import (
	"errors"
	"fmt"

	"github.com/gestorapp/gestor/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderService owns the order/inventory consistency core: line item writes,
// total recomputation, and the pending → confirmed|cancelled state machine
// with its stock side effects. Every mutating method runs in one transaction;
// nothing partial ever persists.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService { return &OrderService{db: db} }

// lockForUpdate adds a row lock on dialects that support it. SQLite has no
// FOR UPDATE; its single-writer model serializes the transaction instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

type CreateOrderInput struct {
	Kind          models.OrderKind
	ClientID      uint // required for sales
	SupplierID    uint // required for purchases
	UserID        uint
	PaymentMethod models.PaymentMethod
	Notes         string
}

// Create opens a new order in Pending status with zero totals.
func (s *OrderService) Create(in CreateOrderInput) (*models.Order, error) {
	order := models.Order{
		Reference:     uuid.NewString(),
		Kind:          in.Kind,
		UserID:        in.UserID,
		PaymentMethod: in.PaymentMethod,
		Status:        models.StatusPending,
		Notes:         in.Notes,
		NetTotal:      decimal.Zero,
		TaxTotal:      decimal.Zero,
		GrossTotal:    decimal.Zero,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentCash
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		switch in.Kind {
		case models.KindSale:
			var client models.Client
			if err := tx.First(&client, in.ClientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("client %d: %w", in.ClientID, gorm.ErrRecordNotFound)
				}
				return err
			}
			order.ClientID = &client.ID
		case models.KindPurchase:
			var supplier models.Supplier
			if err := tx.First(&supplier, in.SupplierID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("supplier %d: %w", in.SupplierID, gorm.ErrRecordNotFound)
				}
				return err
			}
			order.SupplierID = &supplier.ID
		default:
			return fmt.Errorf("unknown order kind %q", in.Kind)
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type AddItemInput struct {
	OrderID   uint
	ProductID uint
	Quantity  int
	// UnitPrice / TaxRate override the pinned product values when non-nil.
	UnitPrice *decimal.Decimal
	TaxRate   *decimal.Decimal
	Note      string
}

// AddItem attaches a line item to a pending order, pinning unit price and tax
// rate from the product unless overridden, and recomputes the order totals in
// the same transaction.
func (s *OrderService) AddItem(in AddItemInput) (*models.OrderItem, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var item models.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(lockForUpdate(tx), in.OrderID)
		if err != nil {
			return err
		}
		if !order.Editable() {
			return ErrOrderNotEditable
		}
		var product models.Product
		if err := lockForUpdate(tx).First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		item = models.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  in.Quantity,
			UnitPrice: product.UnitPrice,
			TaxRate:   product.TaxRate,
			Note:      in.Note,
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return fmt.Errorf("unit price must not be negative")
			}
			item.UnitPrice = *in.UnitPrice
		}
		if in.TaxRate != nil {
			if !models.ValidTaxRate(*in.TaxRate) {
				return fmt.Errorf("tax rate %s is not an allowed rate", in.TaxRate)
			}
			item.TaxRate = *in.TaxRate
		}
		// Sales refuse lines that exceed stock on hand at entry time; the
		// stock is re-checked again at confirmation.
		if order.Kind == models.KindSale && in.Quantity > product.Stock {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   in.Quantity,
				Available:   product.Stock,
			}
		}
		item.ComputeAmounts()
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recomputeTotals(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity changes a line's quantity on a still-pending order and
// recomputes amounts and totals. Price and tax stay pinned.
func (s *OrderService) UpdateItemQuantity(itemID uint, quantity int) (*models.OrderItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var item models.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		order, err := loadOrder(lockForUpdate(tx), item.OrderID)
		if err != nil {
			return err
		}
		if !order.Editable() {
			return ErrOrderNotEditable
		}
		var product models.Product
		if err := lockForUpdate(tx).First(&product, item.ProductID).Error; err != nil {
			return err
		}
		if order.Kind == models.KindSale && quantity > product.Stock {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.Stock,
			}
		}
		item.Quantity = quantity
		item.ComputeAmounts()
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		return recomputeTotals(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a line from a pending order and recomputes totals.
func (s *OrderService) RemoveItem(itemID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		order, err := loadOrder(lockForUpdate(tx), item.OrderID)
		if err != nil {
			return err
		}
		if !order.Editable() {
			return ErrOrderNotEditable
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return recomputeTotals(tx, order.ID)
	})
}

// RecomputeTotals re-derives the three totals from the order's current items
// and persists them. Safe to call repeatedly: with unchanged items the result
// is identical.
func (s *OrderService) RecomputeTotals(orderID uint) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadOrder(tx, orderID); err != nil {
			return err
		}
		return recomputeTotals(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// recomputeTotals sums line amounts in decimal and writes them inside the
// caller's transaction. Invoked by every item write and before confirmation.
func recomputeTotals(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	net, tax := decimal.Zero, decimal.Zero
	for _, it := range items {
		net = net.Add(it.NetAmount)
		tax = tax.Add(it.TaxAmount)
	}
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]any{
		"net_total":   net,
		"tax_total":   tax,
		"gross_total": net.Add(tax),
	}).Error
}

// Confirm transitions a pending order to confirmed. Stock is re-validated per
// line under row locks (it may have moved since the lines were added), then
// every product adjustment and the status flip commit atomically; any failure
// rolls the whole transition back.
func (s *OrderService) Confirm(orderID, actorID uint) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(lockForUpdate(tx), orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusPending {
			return &InvalidTransitionError{Current: order.Status, Attempted: "confirm"}
		}
		// Totals are already current from item writes; recompute defensively
		// so a confirmed order can never carry stale totals.
		if err := recomputeTotals(tx, order.ID); err != nil {
			return err
		}
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, it := range items {
			delta := it.Quantity // purchases receive stock
			if order.Kind == models.KindSale {
				delta = -it.Quantity
			}
			if err := adjustStock(tx, it.ProductID, delta, it.Quantity); err != nil {
				return err
			}
		}
		if err := transitionStatus(tx, order.ID, models.StatusPending, models.StatusConfirmed, "confirm"); err != nil {
			return err
		}
		return tx.Create(&models.AuditLog{
			UserID:     actorID,
			EntityType: "Order",
			EntityID:   order.ID,
			Action:     "confirm",
			OldValue:   string(models.StatusPending),
			NewValue:   string(models.StatusConfirmed),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// Cancel applies the documented cancellation policy: any pending order may be
// cancelled with no stock effect; a confirmed purchase may also be cancelled,
// reversing its earlier stock increment in the same transaction. Confirmed
// sales are never cancellable.
func (s *OrderService) Cancel(orderID, actorID uint, reason string) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(lockForUpdate(tx), orderID)
		if err != nil {
			return err
		}
		from := order.Status
		switch {
		case from == models.StatusPending:
			// No stock was ever moved for a pending order.
		case from == models.StatusConfirmed && order.Kind == models.KindPurchase:
			var items []models.OrderItem
			if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
				return err
			}
			for _, it := range items {
				if err := adjustStock(tx, it.ProductID, -it.Quantity, it.Quantity); err != nil {
					return err
				}
			}
		default:
			return &InvalidTransitionError{Current: from, Attempted: "cancel"}
		}
		if err := transitionStatus(tx, order.ID, from, models.StatusCancelled, "cancel"); err != nil {
			return err
		}
		return tx.Create(&models.AuditLog{
			UserID:     actorID,
			EntityType: "Order",
			EntityID:   order.ID,
			Action:     "cancel",
			OldValue:   string(from),
			NewValue:   string(models.StatusCancelled),
			Note:       reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orderID)
}

// adjustStock applies delta to a product's stock with a conditional UPDATE so
// the row can never go negative, locking the row first on dialects that
// support it. requested is only used to build the error message.
func adjustStock(tx *gorm.DB, productID uint, delta, requested int) error {
	var product models.Product
	if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if product.Stock+delta < 0 {
		return &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   requested,
			Available:   product.Stock,
		}
	}
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The pre-check passed, so a concurrent writer moved the stock
		// between our read and the guarded update.
		return ErrConcurrentModification
	}
	return nil
}

// transitionStatus flips the status with an optimistic guard on the expected
// current value; a lost race surfaces as either an invalid transition (the
// order already left `from`) or a conflict.
func transitionStatus(tx *gorm.DB, orderID uint, from, to models.OrderStatus, attempted string) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Order
		if err := tx.First(&current, orderID).Error; err != nil {
			return ErrConcurrentModification
		}
		if current.Status != from {
			return &InvalidTransitionError{Current: current.Status, Attempted: attempted}
		}
		return ErrConcurrentModification
	}
	return nil
}

// Get returns an order with its items preloaded.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	return loadOrderPreloaded(s.db, orderID)
}

// ListItems returns the current line items of an order.
func (s *OrderService) ListItems(orderID uint) ([]models.OrderItem, error) {
	if _, err := loadOrder(s.db, orderID); err != nil {
		return nil, err
	}
	var items []models.OrderItem
	err := s.db.Where("order_id = ?", orderID).Order("id").Find(&items).Error
	return items, err
}

// ListFilter narrows List by kind and/or status; zero values mean "all".
type ListFilter struct {
	Kind   models.OrderKind
	Status models.OrderStatus
	Limit  int
	Offset int
}

// List returns orders newest first with items preloaded.
func (s *OrderService) List(f ListFilter) ([]models.Order, int64, error) {
	q := s.db.Model(&models.Order{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var orders []models.Order
	err := q.Preload("Items").Order("created_at desc, id desc").Limit(limit).Offset(f.Offset).Find(&orders).Error
	return orders, total, err
}

func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func loadOrderPreloaded(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
