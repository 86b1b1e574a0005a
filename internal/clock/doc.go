// Package clock provides the time source used to stamp audit metadata,
// so tests can pin it with Fixed.
package clock
