package domain

import (
	"fmt"
	"time"
)

// VariantKey identifies one purchasable configuration of a product.
type VariantKey struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Size      string `json:"size" bson:"size"`
	Color     string `json:"color" bson:"color"`
}

// String renders the key as "productID-size-color".
func (k VariantKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.ProductID, k.Size, k.Color)
}

type CartLine struct {
	Key       VariantKey `json:"key" bson:"key"`
	UnitPrice Money      `json:"unit_price" bson:"unit_price"`
	Quantity  int        `json:"quantity" bson:"quantity"`

	// display only
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	Image    string `json:"image,omitempty" bson:"image,omitempty"`
	Category string `json:"category,omitempty" bson:"category,omitempty"`
}

// LineTotal is UnitPrice * Quantity.
func (l CartLine) LineTotal() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// Cart is owned by a single session. Item count and subtotal are always derived
// from Lines and cannot be stored separately.
type Cart struct {
	UserID    string     `json:"user_id" bson:"user_id"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Subtotal() Money {
	var total Money
	for _, l := range c.Lines {
		total += l.LineTotal()
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
