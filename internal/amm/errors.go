package amm

import (
	"cosmossdk.io/errors"
)

const codespace = "amm"

// Engine sentinel errors. All but ErrInvariantViolation are ordinary
// validation failures with no side effects; ErrInvariantViolation pauses the
// affected pool and requires operator reconciliation before resuming.
var (
	ErrPoolNotFound          = errors.Register(codespace, 1, "pool not found")
	ErrPoolAlreadyExists     = errors.Register(codespace, 2, "pool already exists")
	ErrInvalidAmount         = errors.Register(codespace, 3, "invalid amount")
	ErrInvalidFee            = errors.Register(codespace, 4, "invalid fee")
	ErrInsufficientLiquidity = errors.Register(codespace, 5, "insufficient liquidity in pool")
	ErrSlippageExceeded      = errors.Register(codespace, 6, "output amount less than minimum required")
	ErrRatioMismatch         = errors.Register(codespace, 7, "deposit ratio deviates from reserve ratio")
	ErrInsufficientShares    = errors.Register(codespace, 8, "insufficient liquidity shares")
	ErrPoolBusy              = errors.Register(codespace, 9, "pool lock acquisition timed out")
	ErrPoolPaused            = errors.Register(codespace, 10, "pool is not active")
	ErrInvariantViolation    = errors.Register(codespace, 11, "constant product invariant violated")
	ErrInvalidPair           = errors.Register(codespace, 12, "invalid trading pair")
	ErrInvalidDirection      = errors.Register(codespace, 13, "invalid trade direction")
	ErrPoolNotEmpty          = errors.Register(codespace, 14, "pool still holds reserves or shares")
	ErrInvalidTransition     = errors.Register(codespace, 15, "invalid pool state transition")
)
