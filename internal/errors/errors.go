// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a dispatch run is triggered while another
// run still holds the run lock.
var ErrRunInProgress = errors.New("a dispatch run is already in progress")

// ErrNoUsableChannel means every candidate channel was skipped before any
// send was attempted (nothing enabled, or no destination resolvable).
var ErrNoUsableChannel = errors.New("no usable channel configured")

// ErrTenantNotFound is a typed not-found error for tenant settings lookups.
type ErrTenantNotFound struct {
	TenantID int
}

func (e *ErrTenantNotFound) Error() string {
	return fmt.Sprintf("reminder settings for tenant %d not found", e.TenantID)
}

// Helper constructor
func NewTenantNotFound(id int) error {
	return &ErrTenantNotFound{TenantID: id}
}

// ErrCustomerNotFound is a typed not-found error for customer lookups.
type ErrCustomerNotFound struct {
	CustomerID int
}

func (e *ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("customer with ID %d not found", e.CustomerID)
}

func NewCustomerNotFound(id int) error {
	return &ErrCustomerNotFound{CustomerID: id}
}
