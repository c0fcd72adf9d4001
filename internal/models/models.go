package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Brand represents a clothing brand
type Brand struct {
	ID      string `json:"_id,omitempty" mapstructure:"_id"`
	Name    string `json:"name" mapstructure:"name"`
	Country string `json:"country" mapstructure:"country"`
}

// Product represents a garment in the catalog
type Product struct {
	ID      string          `json:"_id,omitempty" mapstructure:"_id"`
	Name    string          `json:"name" mapstructure:"name"`
	BrandID string          `json:"brand_id" mapstructure:"brand_id"`
	Price   decimal.Decimal `json:"price" mapstructure:"price"`
	Stock   int             `json:"stock" mapstructure:"stock"`
}

// User represents a store customer or administrator
type User struct {
	ID        string    `json:"_id,omitempty" mapstructure:"_id"`
	Username  string    `json:"username" mapstructure:"username"`
	Email     string    `json:"email" mapstructure:"email"`
	Password  string    `json:"password,omitempty" mapstructure:"password"`
	Role      string    `json:"role" mapstructure:"role"`
	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// Review represents a user's rating of a product
type Review struct {
	ID         string    `json:"_id,omitempty" mapstructure:"_id"`
	ProductID  string    `json:"product_id" mapstructure:"product_id"`
	UserID     string    `json:"user_id" mapstructure:"user_id"`
	Rating     int       `json:"rating" mapstructure:"rating"`
	Comment    string    `json:"comment" mapstructure:"comment"`
	ReviewDate time.Time `json:"review_date" mapstructure:"review_date"`
}

// Sale represents a purchase of a product by a user
type Sale struct {
	ID        string          `json:"_id,omitempty" mapstructure:"_id"`
	ProductID string          `json:"product_id" mapstructure:"product_id"`
	UserID    string          `json:"user_id" mapstructure:"user_id"`
	SaleDate  string          `json:"sale_date" mapstructure:"sale_date"`
	Quantity  int             `json:"quantity" mapstructure:"quantity"`
	Total     decimal.Decimal `json:"total" mapstructure:"total"`
}

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Document is implemented by every model that can be persisted.
type Document interface {
	ToDocument() map[string]any
}

func (b *Brand) ToDocument() map[string]any {
	return withID(b.ID, map[string]any{
		"name":    b.Name,
		"country": b.Country,
	})
}

func (p *Product) ToDocument() map[string]any {
	return withID(p.ID, map[string]any{
		"name":     p.Name,
		"brand_id": p.BrandID,
		"price":    p.Price.InexactFloat64(),
		"stock":    p.Stock,
	})
}

func (u *User) ToDocument() map[string]any {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return withID(u.ID, map[string]any{
		"username":   u.Username,
		"email":      u.Email,
		"password":   u.Password,
		"role":       u.Role,
		"created_at": createdAt.UTC().Format(time.RFC3339),
	})
}

func (r *Review) ToDocument() map[string]any {
	reviewDate := r.ReviewDate
	if reviewDate.IsZero() {
		reviewDate = time.Now()
	}
	return withID(r.ID, map[string]any{
		"product_id":  r.ProductID,
		"user_id":     r.UserID,
		"rating":      r.Rating,
		"comment":     r.Comment,
		"review_date": reviewDate.UTC().Format(time.RFC3339),
	})
}

func (s *Sale) ToDocument() map[string]any {
	return withID(s.ID, map[string]any{
		"product_id": s.ProductID,
		"user_id":    s.UserID,
		"sale_date":  s.SaleDate,
		"quantity":   s.Quantity,
		"total":      s.Total.InexactFloat64(),
	})
}

func withID(id string, doc map[string]any) map[string]any {
	if id != "" {
		doc["_id"] = id
	}
	return doc
}
