package pipeline

import "fmt"

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	// StageDownload covers remote audio source fetching.
	StageDownload Stage = "download"
	// StageSource covers local audio source resolution.
	StageSource Stage = "source"
	// StageSplit covers audio decoding, conversion and chunk extraction.
	StageSplit Stage = "split"
	// StageModel covers model resolution and acquisition.
	StageModel Stage = "model"
	// StageRecognize covers per-chunk recognizer invocations.
	StageRecognize Stage = "recognize"
	// StageAssemble covers final transcript merging.
	StageAssemble Stage = "assemble"
)

// StageError tags a failure with the stage it happened in and, for
// recognition failures, the 1-based index of the chunk that failed.
// Every stage error is fatal for the run.
type StageError struct {
	Stage Stage
	Chunk int // 0 when the failure is not tied to a single chunk
	Err   error
}

func (e *StageError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("%s stage failed on chunk %d: %v", e.Stage, e.Chunk, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func chunkErr(stage Stage, chunk int, err error) *StageError {
	return &StageError{Stage: stage, Chunk: chunk, Err: err}
}
