package media

import "errors"

// ErrFileNotFound indicates the input audio file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrConversionFailed indicates FFmpeg failed to transcode the input to MP3.
var ErrConversionFailed = errors.New("format conversion failed")

// ErrProbeFailed indicates the input duration could not be determined.
var ErrProbeFailed = errors.New("audio probe failed")

// ErrSegmentationFailed indicates FFmpeg failed to extract a segment.
var ErrSegmentationFailed = errors.New("audio segmentation failed")

// ErrMergeFailed indicates the merged output could not be produced.
var ErrMergeFailed = errors.New("audio merge failed")

// ErrNoSegments indicates a merge was requested with nothing to merge.
var ErrNoSegments = errors.New("no segments to merge")

// ErrInvalidWindow indicates a non-positive segment or gap duration.
var ErrInvalidWindow = errors.New("duration must be positive")
