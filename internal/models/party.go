package models

import "time"

// Counterparties: clients buy from us, suppliers sell to us.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:50;not null" json:"first_name"`
	LastName  string    `gorm:"size:50;not null;index" json:"last_name"`
	TaxID     string    `gorm:"size:13;index" json:"tax_id"` // CUIT/CUIL
	Address   string    `gorm:"size:150" json:"address"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Email     string    `gorm:"size:100;index" json:"email"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name for display and error messages.
func (c Client) FullName() string { return c.FirstName + " " + c.LastName }

type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	CompanyName string    `gorm:"size:150" json:"company_name"`
	TaxID       string    `gorm:"size:13;index" json:"tax_id"`
	Address     string    `gorm:"size:150" json:"address"`
	Phone       string    `gorm:"size:30" json:"phone"`
	Email       string    `gorm:"size:100;index" json:"email"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
