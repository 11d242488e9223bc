package pipeline

import "errors"

// ErrUnknownMode indicates the configured mode is neither play nor merge.
var ErrUnknownMode = errors.New("unknown mode")

// ErrMissingStage indicates the pipeline lacks the component the mode needs.
var ErrMissingStage = errors.New("pipeline stage not configured")
