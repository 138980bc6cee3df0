package claims

import (
	"fmt"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Extraction failure stages
const (
	StageInput     = "input"
	StageTransport = "transport"
	StageParse     = "parse"
	StageSchema    = "schema"
)

// ExtractionError means a document could not be turned into claims.
// It is fatal to the scoring run that needed the document.
type ExtractionError struct {
	Kind    types.DocumentKind
	Stage   string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s (%s): %s: %v", e.Kind, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract %s (%s): %s", e.Kind, e.Stage, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
