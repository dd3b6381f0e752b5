package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Collaborator errors
	ErrExtractionUnavailable = fmt.Errorf("extraction unavailable")
	ErrSchemaMismatch        = fmt.Errorf("export schema mismatch")
	ErrNotifyFailed          = fmt.Errorf("notification failed")
	ErrAPIRequest            = fmt.Errorf("API request failed")
	ErrServiceUnavailable    = fmt.Errorf("service unavailable")

	// Tracking store errors
	ErrStoreRead     = fmt.Errorf("tracking store read failed")
	ErrStoreWrite    = fmt.Errorf("tracking store write failed")
	ErrRunInProgress = fmt.Errorf("another run holds the lock")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidDate     = fmt.Errorf("invalid date")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
