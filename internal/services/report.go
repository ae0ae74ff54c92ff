package services

import (
	"sort"
	"time"

	"github.com/gestorapp/gestor/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportService builds read-only rollups over confirmed orders. It never
// mutates anything; pending and cancelled orders are invisible to it.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{db: db} }

type Summary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	SalesCount     int64           `json:"sales_count"`
	SalesTotal     decimal.Decimal `json:"sales_total"` // gross
	PurchasesCount int64           `json:"purchases_count"`
	PurchasesTotal decimal.Decimal `json:"purchases_total"` // gross
	CashFlow       decimal.Decimal `json:"cash_flow"`       // sales - purchases
}

// Summarize totals confirmed orders inside [from, to].
func (s *ReportService) Summarize(from, to time.Time) (*Summary, error) {
	sum := Summary{From: from, To: to}
	var err error
	sum.SalesCount, sum.SalesTotal, err = s.kindTotal(models.KindSale, from, to)
	if err != nil {
		return nil, err
	}
	sum.PurchasesCount, sum.PurchasesTotal, err = s.kindTotal(models.KindPurchase, from, to)
	if err != nil {
		return nil, err
	}
	sum.CashFlow = sum.SalesTotal.Sub(sum.PurchasesTotal)
	return &sum, nil
}

func (s *ReportService) kindTotal(kind models.OrderKind, from, to time.Time) (int64, decimal.Decimal, error) {
	var orders []models.Order
	err := s.db.
		Where("kind = ? AND status = ? AND created_at BETWEEN ? AND ?",
			kind, models.StatusConfirmed, from, to).
		Find(&orders).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	// Sum in decimal; SQL SUM over a numeric column would round-trip through
	// the driver's float path on some dialects.
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.GrossTotal)
	}
	return int64(len(orders)), total, nil
}

type MonthlyPoint struct {
	Month int             `json:"month"` // 1..12
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// MonthlySeries returns per-month confirmed totals of one kind for a year.
// Months without orders are present with zero values.
func (s *ReportService) MonthlySeries(kind models.OrderKind, year int) ([]MonthlyPoint, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	var orders []models.Order
	err := s.db.
		Where("kind = ? AND status = ? AND created_at >= ? AND created_at < ?",
			kind, models.StatusConfirmed, from, to).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	points := make([]MonthlyPoint, 12)
	for i := range points {
		points[i] = MonthlyPoint{Month: i + 1, Total: decimal.Zero}
	}
	for _, o := range orders {
		m := int(o.CreatedAt.Month()) - 1
		points[m].Count++
		points[m].Total = points[m].Total.Add(o.GrossTotal)
	}
	return points, nil
}

type TopProduct struct {
	ProductID    uint   `json:"product_id"`
	Name         string `json:"name"`
	QuantitySold int    `json:"quantity_sold"`
}

// TopProducts ranks products by confirmed sale quantity. Zero from/to values
// leave that side of the date range unbounded.
func (s *ReportService) TopProducts(from, to time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	q := s.db.Model(&models.OrderItem{}).
		Select("order_items.product_id as product_id, products.name as name, SUM(order_items.quantity) as quantity_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.kind = ? AND orders.status = ?", models.KindSale, models.StatusConfirmed)
	if !from.IsZero() {
		q = q.Where("orders.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("orders.created_at <= ?", to)
	}
	var rows []TopProduct
	err := q.Group("order_items.product_id, products.name").
		Order("quantity_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type TopParty struct {
	ID     uint            `json:"id"`
	Name   string          `json:"name"`
	Orders int64           `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// TopClients ranks clients by confirmed sale gross total.
func (s *ReportService) TopClients(from, to time.Time, limit int) ([]TopParty, error) {
	return s.topParties(models.KindSale, from, to, limit)
}

// TopSuppliers ranks suppliers by confirmed purchase gross total.
func (s *ReportService) TopSuppliers(from, to time.Time, limit int) ([]TopParty, error) {
	return s.topParties(models.KindPurchase, from, to, limit)
}

func (s *ReportService) topParties(kind models.OrderKind, from, to time.Time, limit int) ([]TopParty, error) {
	if limit <= 0 {
		limit = 5
	}
	q := s.db.Model(&models.Order{}).
		Where("orders.kind = ? AND orders.status = ?", kind, models.StatusConfirmed)
	if kind == models.KindSale {
		q = q.Select("orders.client_id as id, clients.first_name || ' ' || clients.last_name as name, orders.gross_total as gross").
			Joins("JOIN clients ON clients.id = orders.client_id")
	} else {
		q = q.Select("orders.supplier_id as id, suppliers.name as name, orders.gross_total as gross").
			Joins("JOIN suppliers ON suppliers.id = orders.supplier_id")
	}
	if !from.IsZero() {
		q = q.Where("orders.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("orders.created_at <= ?", to)
	}
	type orderRow struct {
		ID    uint
		Name  string
		Gross decimal.Decimal
	}
	var rows []orderRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	// Aggregate per party in decimal; see the note on kindTotal.
	byParty := map[uint]*TopParty{}
	for _, r := range rows {
		p, ok := byParty[r.ID]
		if !ok {
			p = &TopParty{ID: r.ID, Name: r.Name, Total: decimal.Zero}
			byParty[r.ID] = p
		}
		p.Orders++
		p.Total = p.Total.Add(r.Gross)
	}
	out := make([]TopParty, 0, len(byParty))
	for _, p := range byParty {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
