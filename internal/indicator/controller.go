// Package indicator switches the auxiliary on/off output of the prop: a
// GPIO line, a board LED, or nothing.
package indicator

// Controller abstracts the indicator hardware.
type Controller interface {
	// Set switches the indicator on or off.
	Set(on bool) error
	// State returns the last state successfully set.
	State() bool
	// Close releases the hardware.
	Close() error
}
