package playback

import "errors"

// ErrDecodeFailed indicates a segment could not be decoded to samples.
var ErrDecodeFailed = errors.New("audio decode failed")

// ErrDeviceUnavailable indicates the audio output device could not be opened.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrInvalidRate indicates a non-positive playback rate.
var ErrInvalidRate = errors.New("playback rate must be positive")
