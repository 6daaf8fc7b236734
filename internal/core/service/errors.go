package service

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrZeroTotal            = errors.New("cart total is zero")
	ErrMissingVendorContact = errors.New("vendor has no contact phone")
	ErrDuplicateCheckout    = errors.New("duplicate checkout request")
	ErrOrderNotPending      = errors.New("order is not pending")
	ErrInsufficientPoints   = errors.New("not enough loyalty points")
	ErrNoLoyaltyProgram     = errors.New("vendor has no loyalty settings")
)
