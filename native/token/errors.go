package token

import "errors"

var (
	ErrInvalidQuantity     = errors.New("token: quantity must be positive")
	ErrItemNotFound        = errors.New("token: item not found")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)
