// Package cart holds the pure cart state machine. Apply never mutates its input;
// persistence and propagation of the returned cart belong to the caller.
package cart

import (
	"fmt"
	"slices"

	"github.com/fjod/go_storefront/internal/domain"
)

// Apply returns the cart that results from applying a to c.
func Apply(c domain.Cart, a Action) (domain.Cart, error) {
	next := c
	next.Lines = slices.Clone(c.Lines)

	switch act := a.(type) {
	case AddItem:
		if err := Validate(act.Line); err != nil {
			return c, err
		}
		if i := indexOf(next.Lines, act.Line.Key); i >= 0 {
			next.Lines[i].Quantity += act.Line.Quantity
		} else {
			next.Lines = append(next.Lines, act.Line)
		}

	case UpdateQuantity:
		i := indexOf(next.Lines, act.Key)
		if i < 0 {
			return next, nil
		}
		if act.Quantity < 1 {
			next.Lines = slices.Delete(next.Lines, i, i+1)
		} else {
			next.Lines[i].Quantity = act.Quantity
		}

	case RemoveItem:
		if i := indexOf(next.Lines, act.Key); i >= 0 {
			next.Lines = slices.Delete(next.Lines, i, i+1)
		}

	case ClearCart:
		next.Lines = nil

	default:
		return c, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	return next, nil
}

// Validate checks a line before it is added.
func Validate(line domain.CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: got %d for %s", ErrInvalidQuantity, line.Quantity, line.Key)
	}
	return nil
}

// Lookup returns the line stored under key.
func Lookup(c domain.Cart, key domain.VariantKey) (domain.CartLine, bool) {
	if i := indexOf(c.Lines, key); i >= 0 {
		return c.Lines[i], true
	}
	return domain.CartLine{}, false
}

func indexOf(lines []domain.CartLine, key domain.VariantKey) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool { return l.Key == key })
}
