package domain

import (
	"time"
)

type Rating struct {
	Rate  float64 `dynamodbav:"rate"  json:"rate"`
	Count int     `dynamodbav:"count" json:"count"`
}

// Product is a catalog item as carried into the cart. A zero Quantity means
// the catalog did not provide one and counts as 1 in totals.
type Product struct {
	ID          int64   `dynamodbav:"id"          json:"id"`
	Title       string  `dynamodbav:"title"       json:"title"`
	Price       float64 `dynamodbav:"price"       json:"price"`
	Description string  `dynamodbav:"description" json:"description"`
	Category    string  `dynamodbav:"category"    json:"category"`
	Image       string  `dynamodbav:"image"       json:"image"`
	Rating      Rating  `dynamodbav:"rating"      json:"rating"`
	Quantity    int     `dynamodbav:"quantity,omitempty" json:"quantity,omitempty"`
}

// EffectiveQuantity is the quantity used when pricing the product.
func (p Product) EffectiveQuantity() int {
	if p.Quantity == 0 {
		return 1
	}
	return p.Quantity
}

type AddProductRequest struct {
	ID          int64   `json:"id"          binding:"required"`
	Title       string  `json:"title"       binding:"required"`
	Price       float64 `json:"price"       binding:"gte=0"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"       binding:"omitempty,url"`
	Rating      Rating  `json:"rating"`
	Quantity    int     `json:"quantity"    binding:"gte=0"`
}

func (r AddProductRequest) Product() Product {
	return Product{
		ID:          r.ID,
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image,
		Rating:      r.Rating,
		Quantity:    r.Quantity,
	}
}

type ChangeQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	Products          []Product `json:"products"`
	Subtotal          float64   `json:"subtotal"`
	Tax               float64   `json:"tax"`
	Total             float64   `json:"total"`
	FormattedSubtotal string    `json:"formatted_subtotal"`
	FormattedTax      string    `json:"formatted_tax"`
	FormattedTotal    string    `json:"formatted_total"`
	Currency          string    `json:"currency"`
	Loading           bool      `json:"loading"`
	UpdatedAt         time.Time `json:"updated_at"`
}
