// Package calendar defines the single call surface the "book" SMS command
// grammar uses. Out of scope beyond the contract (SPEC_FULL.md's calendar
// integration note): no concrete provider ships, only a stub that reports
// itself unconfigured.
package calendar

import "time"

// TimeSlot is a half-open appointment window.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// BookingResult is the outcome of a booking attempt.
type BookingResult struct {
	Success bool
	Message string
}

// Provider books appointments against a calendar backend.
type Provider interface {
	BookAppointment(slot TimeSlot, name, email, phone, notes string) (BookingResult, error)
}

// Stub is a Provider that accepts no bookings, for deployments with no
// calendar integration configured.
type Stub struct{}

// BookAppointment always reports the integration as unconfigured.
func (Stub) BookAppointment(TimeSlot, string, string, string, string) (BookingResult, error) {
	return BookingResult{Success: false, Message: "calendar integration not configured"}, nil
}
