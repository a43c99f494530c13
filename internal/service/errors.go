package service

import "errors"

var (
	ErrInvalidVariant    = errors.New("size or color not offered for product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidAddress    = errors.New("invalid shipping address")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthenticated   = errors.New("no authenticated principal")
)
