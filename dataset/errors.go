package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when filtering or selection leaves no samples.
	ErrEmptyDataset = errors.New("dataset: no data")
	// ErrShapeMismatch is returned when feature and label counts diverge.
	ErrShapeMismatch = errors.New("dataset: feature/label count mismatch")
)

// Stage names a step of Build.
type Stage string

const (
	StageFilter  Stage = "filter"
	StageSelect  Stage = "select"
	StageEncode  Stage = "encode"
	StageBalance Stage = "balance"
	StageSplit   Stage = "split"
)

// StageError reports the stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("dataset: %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func checkShape(stage Stage, features, labels int) error {
	if features != labels {
		return &StageError{Stage: stage, Err: fmt.Errorf("%w: %d features, %d labels", ErrShapeMismatch, features, labels)}
	}
	return nil
}
