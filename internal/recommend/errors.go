// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/wayfinder/internal/geo"
)

// Sentinel errors. The typed errors below unwrap to these.
var (
	// ErrLocationUnresolved means there is no usable search center.
	ErrLocationUnresolved = errors.New("location could not be resolved")

	// ErrEmptyResult means the radius filter left no candidate.
	ErrEmptyResult = errors.New("no businesses within the search radius")

	// ErrPersistenceWrite means feedback could not be saved durably.
	ErrPersistenceWrite = errors.New("failed to persist preferences")

	// ErrNothingServed is returned by feedback operations before any
	// candidate has been served.
	ErrNothingServed = errors.New("no candidate has been served yet")
)

// LocationUnresolvedError reports a missing or invalid search center.
type LocationUnresolvedError struct {
	// Place is the place name that failed to resolve, if known.
	Place string

	// Err is the underlying geocoder failure, if any.
	Err error
}

func (e *LocationUnresolvedError) Error() string {
	switch {
	case e.Place != "" && e.Err != nil:
		return fmt.Sprintf("location %q could not be resolved: %v", e.Place, e.Err)
	case e.Place != "":
		return fmt.Sprintf("location %q could not be resolved", e.Place)
	case e.Err != nil:
		return fmt.Sprintf("location could not be resolved: %v", e.Err)
	default:
		return ErrLocationUnresolved.Error()
	}
}

func (e *LocationUnresolvedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLocationUnresolved}
	}
	return []error{ErrLocationUnresolved, e.Err}
}

// EmptyResultError reports that a non-empty catalog has nothing inside the
// search radius.
type EmptyResultError struct {
	Center   geo.Point
	RadiusKm float64
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no businesses within %.1f km of %s", e.RadiusKm, e.Center)
}

func (e *EmptyResultError) Unwrap() error {
	return ErrEmptyResult
}

// PersistenceWriteError wraps a failed preference save.
type PersistenceWriteError struct {
	UserID string
	Err    error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist preferences for %q: %v", e.UserID, e.Err)
}

func (e *PersistenceWriteError) Unwrap() []error {
	return []error{ErrPersistenceWrite, e.Err}
}
