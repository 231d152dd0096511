package model

import "fmt"

// PersistenceError means a read or write on one of the state files did not take effect.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// FeatureError means the value model was given malformed input.
type FeatureError struct {
	Op  string
	Err error
}

func (e *FeatureError) Error() string { return fmt.Sprintf("feature: %s: %v", e.Op, e.Err) }
func (e *FeatureError) Unwrap() error { return e.Err }

// FetchError covers network, HTTP and parse failures while collecting data.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch: %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// PipelineError is a failure inside the decision pipeline.
type PipelineError struct {
	Op  string
	Err error
}

func (e *PipelineError) Error() string { return fmt.Sprintf("pipeline: %s: %v", e.Op, e.Err) }
func (e *PipelineError) Unwrap() error { return e.Err }
