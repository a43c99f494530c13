package cart

import "github.com/fjod/go_storefront/internal/domain"

// Action is one of AddItem, UpdateQuantity, RemoveItem or ClearCart.
type Action interface {
	actionName() string
}

// AddItem merges Line into the cart. If a line with the same variant key is
// already present its quantity grows by Line.Quantity and its unit price is
// left untouched: the first price seen for a variant is the one charged.
type AddItem struct {
	Line domain.CartLine
}

// UpdateQuantity sets the quantity of a line. Values below 1 remove the line.
type UpdateQuantity struct {
	Key      domain.VariantKey
	Quantity int
}

type RemoveItem struct {
	Key domain.VariantKey
}

type ClearCart struct{}

func (AddItem) actionName() string        { return "ADD_ITEM" }
func (UpdateQuantity) actionName() string { return "UPDATE_QUANTITY" }
func (RemoveItem) actionName() string     { return "REMOVE_ITEM" }
func (ClearCart) actionName() string      { return "CLEAR_CART" }

// Name returns the wire name of an action, used in logs.
func Name(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
