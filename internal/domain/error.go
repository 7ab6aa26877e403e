package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                   = errors.New("entity not found")
	ErrInvalidArgument            = errors.New("invalid argument")
	ErrAlreadyCompleted           = errors.New("payment has already been completed")
	ErrActiveMembershipExists     = errors.New("member already has an active membership, only one is allowed at a time")
	ErrPaymentMethodNotConfigured = errors.New("payment method is not enabled or not fully configured for this item")
	ErrGatewayRequestFailed       = errors.New("payment gateway request failed")
	ErrUnknownItemType            = errors.New("unknown purchasable item type")
	ErrLockNotAcquired            = errors.New("could not acquire lock")

	// Infra-level errors surfaced through repositories
	ErrInvalidExecContext = errors.New("invalid execution context for database call")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
