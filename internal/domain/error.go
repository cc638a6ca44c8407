package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Plan registry guards
	ErrPlanInactive               = errors.New("plan is not active")
	ErrPlanImmutable              = errors.New("cannot change plan amount or interval while active subscriptions exist - create a new plan instead")
	ErrPlanHasActiveSubscriptions = errors.New("plan has active subscriptions")
	ErrPlanHasSubscriptions       = errors.New("plan has subscription history")

	// Lifecycle and reconciliation guards
	ErrInvalidTransition  = errors.New("invalid subscription state transition")
	ErrInvoiceNotPayable  = errors.New("invoice is not payable")
	ErrPaymentMismatch    = errors.New("payment amount does not match invoice amount")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Storage-level errors surfaced by repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
