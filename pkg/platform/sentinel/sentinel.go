package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrUnavailable: backing store temporarily unavailable
//   - ErrNestedTx: a unit of work tried to open a second transaction
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrNestedTx    = errors.New("nested transactions are not allowed")
)
