package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Recurrence engine errors
	ErrInvalidRule    = fmt.Errorf("invalid recurrence rule")
	ErrStorageFailure = fmt.Errorf("storage operation failed")
	ErrInactiveRule   = fmt.Errorf("recurrence rule is inactive")

	// Lookup errors
	ErrTaskNotFound     = fmt.Errorf("task not found")
	ErrTagNotFound      = fmt.Errorf("tag not found")
	ErrRuleNotFound     = fmt.Errorf("recurrence rule not found")
	ErrInstanceNotFound = fmt.Errorf("task instance not found")

	// Constraint errors
	ErrTagExists  = fmt.Errorf("tag with this name already exists")
	ErrRuleExists = fmt.Errorf("recurrence rule already exists for this task")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
