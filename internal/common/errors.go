// Package common defines shared constants and sentinel errors used across
// garagesync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Fatal sync errors: either of these aborts a Sync() run before any
	// local state is mutated.
	ErrConfig = errors.New("invalid or missing configuration")
	ErrAuth   = errors.New("remote store authentication failed")

	// Recoverable per-item errors. These are logged and counted, never
	// propagated out of a sync phase.
	ErrRemoteIO = errors.New("remote store request failed")
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned when both repair bays are occupied.
	// The operator's request is rejected, nothing is mutated.
	ErrCapacityExceeded = errors.New("all repair slots are occupied")

	// ErrSlotOccupied is returned when the explicitly requested slot is
	// already held by another in-progress repair.
	ErrSlotOccupied = errors.New("requested slot is occupied")

	// ErrSyncInProgress is returned when a sync run is already holding the
	// single-flight lock.
	ErrSyncInProgress = errors.New("synchronization already running")

	ErrInternal = errors.New("internal error")
)
