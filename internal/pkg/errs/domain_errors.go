package errs

import "errors"

// Domain-specific sentinel errors for CQRS usecase layers
var (
	// Booking errors
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrServiceNotFound   = errors.New("service not found")
	ErrContactNotFound   = errors.New("contact not found")

	// Inventory errors
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Automation errors
	ErrDispatchFailed   = errors.New("notification dispatch failed")
	ErrUnknownEventType = errors.New("unknown event type")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
