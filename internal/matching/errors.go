package matching

import "fmt"

// MalformedRequirementError means a requirement could not be matched at all:
// it has no usable text or its embedding failed. The caller marks the
// requirement unmatched with low confidence and carries on.
type MalformedRequirementError struct {
	RequirementID string
	Reason        string
	Cause         error
}

func (e *MalformedRequirementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed requirement %s: %s: %v", e.RequirementID, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed requirement %s: %s", e.RequirementID, e.Reason)
}

func (e *MalformedRequirementError) Unwrap() error {
	return e.Cause
}
