package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Admin struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:ADMIN"   json:"role"`
}

// Price is stored in minor units (cents).
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Description string `json:"description"`
	Price       int64  `gorm:"not null;check:price>0"   json:"price"`
	ImageURL    string `json:"image_url"`
	AdminID     uint   `gorm:"index;not null"           json:"admin_id"`

	Inventory *Inventory `gorm:"constraint:OnDelete:CASCADE" json:"inventory,omitempty"`
	Discounts []Discount `gorm:"many2many:product_discounts" json:"discounts,omitempty"`
}

// One row per product. Quantity changes only through the inventory ledger.
type Inventory struct {
	ID        uint      `gorm:"primaryKey"                           json:"id"`
	ProductID uint      `gorm:"uniqueIndex;not null"                 json:"product_id"`
	Quantity  int64     `gorm:"not null;default:0;check:quantity>=0" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty"`
}

// Append-only audit record. Never updated or deleted.
type InventoryLog struct {
	ID               uint      `gorm:"primaryKey"     json:"id"`
	ProductID        uint      `gorm:"index;not null" json:"product_id"`
	Change           int64     `gorm:"not null"       json:"change"`
	Reason           string    `gorm:"not null"       json:"reason"`
	PreviousQuantity int64     `gorm:"not null"       json:"previous_quantity"`
	NewQuantity      int64     `gorm:"not null"       json:"new_quantity"`
	AdminID          uint      `gorm:"index;not null" json:"admin_id"`
	CreatedAt        time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty"`
}

type Discount struct {
	ID         uint      `gorm:"primaryKey"      json:"id"`
	Code       string    `gorm:"unique;not null" json:"code"`
	Percentage int64     `gorm:"not null;check:percentage >= 1 AND percentage <= 100" json:"percentage"`
	ValidTill  time.Time `gorm:"not null"        json:"valid_till"`
	AdminID    uint      `gorm:"index;not null"  json:"admin_id"`
	CreatedAt  time.Time `json:"created_at"`

	Products []Product `gorm:"many2many:product_discounts" json:"products,omitempty"`
	Users    []User    `gorm:"many2many:user_discounts"    json:"users,omitempty"`
}

type Cart struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                                        json:"id"`
	CartID    uint `gorm:"index:idx_cart_product,unique,priority:1;not null" json:"cart_id"`
	ProductID uint `gorm:"index:idx_cart_product,unique,priority:2;not null" json:"product_id"`
	Quantity  uint `gorm:"not null;check:quantity>0"                         json:"quantity"`

	Product *Product `json:"product,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusReturnRequested OrderStatus = "RETURN_REQUESTED"
	OrderStatusReturnApproved  OrderStatus = "RETURN_APPROVED"
	OrderStatusReturnRejected  OrderStatus = "RETURN_REJECTED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

// TotalAmount and DiscountAmount are minor units, immutable after creation.
// StockReleased guards the one-shot inventory release on cancel/return paths.
type Order struct {
	ID                 uint        `gorm:"primaryKey"               json:"id"`
	UserID             uint        `gorm:"index;not null"           json:"user_id"`
	AdminID            *uint       `gorm:"index"                    json:"admin_id,omitempty"`
	DiscountID         *uint       `gorm:"index"                    json:"discount_id,omitempty"`
	TotalAmount        int64       `gorm:"not null"                 json:"total_amount"`
	DiscountAmount     int64       `gorm:"not null;default:0"       json:"discount_amount"`
	Status             OrderStatus `gorm:"not null;default:PENDING" json:"status"`
	StockReleased      bool        `gorm:"not null;default:false"   json:"-"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	AdminNote          string      `json:"admin_note,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	Items    []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Discount *Discount   `json:"discount,omitempty"`
	Admin    *Admin      `json:"admin,omitempty"`
}

// Price is the unit price snapshot taken at order time, in minor units.
type OrderItem struct {
	ID        uint  `gorm:"primaryKey"                json:"id"`
	OrderID   uint  `gorm:"index;not null"            json:"order_id"`
	ProductID uint  `gorm:"not null"                  json:"product_id"`
	Quantity  uint  `gorm:"not null;check:quantity>0" json:"quantity"`
	Price     int64 `gorm:"not null"                  json:"price"`

	Product *Product `json:"product,omitempty"`
}

type ReturnRequest struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	Reference string    `gorm:"unique;not null"          json:"reference"`
	OrderID   uint      `gorm:"index;not null"           json:"order_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Reason    string    `gorm:"not null"                 json:"reason"`
	Status    string    `gorm:"not null;default:PENDING" json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Items []ReturnRequestItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type ReturnRequestItem struct {
	ID              uint   `gorm:"primaryKey"     json:"id"`
	ReturnRequestID uint   `gorm:"index;not null" json:"return_request_id"`
	ProductID       uint   `gorm:"not null"       json:"product_id"`
	Quantity        uint   `gorm:"not null"       json:"quantity"`
	Reason          string `json:"reason,omitempty"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                                          json:"id"`
	ProductID uint      `gorm:"index:idx_review_product_user,unique,priority:1;not null" json:"product_id"`
	UserID    uint      `gorm:"index:idx_review_product_user,unique,priority:2;not null" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"          json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Admin{},
		&Product{},
		&Inventory{},
		&InventoryLog{},
		&Discount{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&ReturnRequest{},
		&ReturnRequestItem{},
		&Review{},
	}
}
