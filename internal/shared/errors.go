package shared

import "errors"

var (
	// ErrValidation indicates a required field or value failed pre-flight checks.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates an operation refused by policy, e.g. touching the protected role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a duplicate record, e.g. an already-active assignment.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates the referenced role, permission or assignment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNetwork indicates a transport failure or an unclassified non-2xx response.
	ErrNetwork = errors.New("network failure")
)
