package domain

import (
	"slices"
	"time"
)

// Product is the catalog read model consulted when a line is added to a cart.
type Product struct {
	ID       string   `json:"id" bson:"_id"`
	Name     string   `json:"name" bson:"name"`
	Price    Money    `json:"price" bson:"price"`
	Stock    int      `json:"stock" bson:"stock"`
	Sizes    []string `json:"sizes" bson:"sizes"`
	Colors   []string `json:"colors" bson:"colors"`
	Category string   `json:"category" bson:"category"`
	Image    string   `json:"image,omitempty" bson:"image,omitempty"`
}

// HasVariant reports whether size and color are offered. A product with no
// sizes (or colors) accepts only the empty value for that dimension.
func (p Product) HasVariant(size, color string) bool {
	return offers(p.Sizes, size) && offers(p.Colors, color)
}

func offers(options []string, v string) bool {
	if len(options) == 0 {
		return v == ""
	}
	return slices.Contains(options, v)
}

type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Principal is an already-authenticated actor supplied by the identity provider.
type Principal struct {
	UserID    string
	UserEmail string
	Admin     bool
}
