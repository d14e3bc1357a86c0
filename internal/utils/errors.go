package utils

import "errors"

// Common application errors used across services.
var (
	ErrDuplicateOrder = errors.New("DUPLICATE_ORDER")
	ErrOrderNotFound  = errors.New("ORDER_NOT_FOUND")
	ErrOutOfStock     = errors.New("OUT_OF_STOCK")
	ErrClaimRaceLost  = errors.New("CLAIM_RACE_LOST")
)
