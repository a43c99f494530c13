package lifecycle

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal order transition")
	ErrPaymentNotSettled = errors.New("cannot mark delivered: payment not settled")
)
