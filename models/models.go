package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     *uint     `json:"user_id,omitempty" gorm:"uniqueIndex"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name       string    `json:"name" gorm:"size:200"`
	Phone      string    `json:"phone" gorm:"size:200"`
	Email      *string   `json:"email" gorm:"size:200;uniqueIndex"`
	ProfilePic string    `json:"profile_pic,omitempty" gorm:"size:255"`
	Source     string    `json:"source" gorm:"size:50;default:website"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Orders     []Order   `json:"orders,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// EmailAddress returns the email or "" when none is stored.
func (c Customer) EmailAddress() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

// SetEmail stores a blank email as NULL so the unique index only covers real addresses.
func (c *Customer) SetEmail(email string) {
	if email == "" {
		c.Email = nil
		return
	}
	c.Email = &email
}

// DisplayName truncates long names the same way list pages show them.
func (c Customer) DisplayName() string {
	r := []rune(c.Name)
	if len(r) > 50 {
		return string(r[:50])
	}
	return c.Name
}

type Tag struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"size:200"`
	Products []Product `json:"-" gorm:"many2many:product_tags;"`
}

type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:70"`
	Price       float64   `json:"price"`
	Description string    `json:"description" gorm:"size:100"`
	Category    Category  `json:"category,omitempty" gorm:"size:50"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []Tag     `json:"tags,omitempty" gorm:"many2many:product_tags;"`
	Orders      []Order   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// HasTag reports whether the product carries the tag id; forms use it to pre-select options.
func (p Product) HasTag(id uint) bool {
	for _, t := range p.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	CustomerID *uint       `json:"customer_id" gorm:"index"`
	Customer   *Customer   `json:"customer,omitempty"`
	ProductID  *uint       `json:"product_id" gorm:"index"`
	Product    *Product    `json:"product,omitempty"`
	Status     OrderStatus `json:"status" gorm:"size:100"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// BeforeSave keeps the status column inside the declared enum.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	if !o.Status.Valid() {
		return &InvalidStatusError{Status: string(o.Status)}
	}
	return nil
}

// ProductName is safe to call on orders whose product was not preloaded.
func (o Order) ProductName() string {
	if o.Product == nil {
		return ""
	}
	return o.Product.Name
}

func (o Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Name
}

// All lists every model for AutoMigrate in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &Customer{}, &Tag{}, &Product{}, &Order{}}
}
