package apperrors

import "fmt"

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewSubjectNotFoundError creates a specific error for when a Bangumi subject cannot be resolved.
func NewSubjectNotFoundError(subjectID int) *ErrNotFound {
	return &ErrNotFound{
		Resource: "subject",
		ID:       subjectID,
	}
}

// ErrRemoteUnavailable is returned when the Bangumi API answers with a non-success
// status or cannot be reached at all. StatusCode is 0 for transport failures.
type ErrRemoteUnavailable struct {
	Endpoint   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ErrRemoteUnavailable) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote endpoint %s unavailable: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("remote endpoint %s unavailable: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *ErrRemoteUnavailable) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrRemoteUnavailable) Is(target error) bool {
	_, ok := target.(*ErrRemoteUnavailable)
	return ok
}

// ErrSubjectKindMismatch is returned when a resolved subject is not an importable series.
type ErrSubjectKindMismatch struct {
	SubjectID int
	Type      int
}

// Error implements the error interface.
func (e *ErrSubjectKindMismatch) Error() string {
	return fmt.Sprintf("subject %d has type %d and is not an importable series", e.SubjectID, e.Type)
}

// Is allows for error checking with errors.Is().
func (e *ErrSubjectKindMismatch) Is(target error) bool {
	_, ok := target.(*ErrSubjectKindMismatch)
	return ok
}

// ErrPipelineStep wraps a failure raised by one step of the import pipeline.
type ErrPipelineStep struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *ErrPipelineStep) Error() string {
	return fmt.Sprintf("import step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the cause of the step failure.
func (e *ErrPipelineStep) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrPipelineStep) Is(target error) bool {
	_, ok := target.(*ErrPipelineStep)
	return ok
}

// NewPipelineStepError wraps err as a failure of the named step.
func NewPipelineStepError(step string, err error) *ErrPipelineStep {
	return &ErrPipelineStep{Step: step, Err: err}
}
