package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - admin/staff account for the back office
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'staff'
	CreatedAt    time.Time `json:"created_at"`
}

// ProductKind - the sellable item types of the shop
type ProductKind string

const (
	KindLaptop  ProductKind = "laptop"
	KindPC      ProductKind = "pc"
	KindPhone   ProductKind = "phone"
	KindConsole ProductKind = "console"
)

// Valid reports whether k is one of the known kinds.
func (k ProductKind) Valid() bool {
	switch k {
	case KindLaptop, KindPC, KindPhone, KindConsole:
		return true
	}
	return false
}

// Product - anything with a price and stock, looked up by slug
type Product struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Slug         string      `gorm:"uniqueIndex;size:160;not null" json:"slug"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Kind         ProductKind `gorm:"size:16;index;not null" json:"kind"`
	Category     string      `gorm:"size:64" json:"category"`
	BasePriceHuf int64       `gorm:"not null" json:"base_price_huf"`
	Stock        int         `gorm:"not null;default:0" json:"stock"`
	ImageURL     string      `json:"image_url"`
	Discounts    []Discount  `gorm:"many2many:discount_products;" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DiscountKind - how a discount amount is interpreted
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// Discount - a promotional rule covering one or more products
type Discount struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255" json:"name"`
	Kind      DiscountKind    `gorm:"size:16;not null" json:"kind"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Active    bool            `gorm:"index" json:"active"`
	StartsAt  *time.Time      `json:"starts_at,omitempty"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	Products  []Product       `gorm:"many2many:discount_products;" json:"products,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order statuses as the storefront and the payment flow know them
const (
	OrderSubmitted = "LEADVA"
	OrderPaid      = "FIZETVE"
	OrderCanceled  = "TOROLVE"
)

// Order - created at checkout, moved along by payment notifications
type Order struct {
	ID                string      `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber       string      `gorm:"uniqueIndex;size:16;not null" json:"order_number"`
	CustomerName      string      `gorm:"size:255" json:"customer_name"`
	Email             string      `gorm:"size:255" json:"email"`
	Phone             string      `gorm:"size:64" json:"phone"`
	PostalCode        string      `gorm:"size:16" json:"postal_code"`
	City              string      `gorm:"size:128" json:"city"`
	AddressLine       string      `gorm:"size:255" json:"address_line"`
	Note              string      `json:"note,omitempty"`
	SubtotalHuf       int64       `json:"subtotal_huf"`
	ShippingHuf       int64       `json:"shipping_huf"`
	TotalHuf          int64       `json:"total_huf"`
	Status            string      `gorm:"size:16;index" json:"status"`
	PaymentID         string      `gorm:"size:64;index" json:"payment_id,omitempty"`
	PaymentStatus     string      `gorm:"size:64" json:"payment_status,omitempty"`
	TransactionStatus string      `gorm:"size:64" json:"transaction_status,omitempty"`
	StockReduced      bool        `gorm:"not null;default:false" json:"stock_reduced"`
	PaidAt            *time.Time  `json:"paid_at,omitempty"`
	Items             []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Upgrade - an add-on chosen for a line item (e.g. extra memory)
type Upgrade struct {
	Name          string `json:"name"`
	PriceDeltaHuf int64  `json:"price_delta_huf"`
}

// OrderItem - one cart line, priced at checkout time
type OrderItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      string    `gorm:"size:36;index" json:"order_id"`
	Slug         string    `gorm:"size:160;index" json:"slug"`
	Name         string    `json:"name"`
	UnitPriceHuf int64     `json:"unit_price_huf"` // Snapshot incl. upgrades
	Quantity     int       `json:"quantity"`
	Upgrades     []Upgrade `gorm:"serializer:json" json:"upgrades,omitempty"`
}
