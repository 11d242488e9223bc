package media

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ParseProbeJSON exports parseProbeJSON for testing.
var ParseProbeJSON = parseProbeJSON

// ParseDurationFromFFmpegOutput exports parseDurationFromFFmpegOutput for testing.
var ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput

// ParseTimeComponents exports parseTimeComponents for testing.
var ParseTimeComponents = parseTimeComponents

// EncodingArgs exports encodingArgs for testing.
var EncodingArgs = encodingArgs

// ConcatList exports concatList for testing.
var ConcatList = concatList

// CleanupWith exports cleanup with an injected remover for testing.
func CleanupWith(files FileRemover, segments []Segment) error {
	return cleanup(files, segments)
}

// --- Dependency injection exports ---

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter

// DirMaker exports dirMaker interface for testing.
type DirMaker = dirMaker

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover

// FileWriter exports fileWriter interface for testing.
type FileWriter = fileWriter

// SilenceProvider exports silenceProvider interface for testing.
type SilenceProvider = silenceProvider

// OutputDirPerm exports outputDirPerm for testing.
const OutputDirPerm = outputDirPerm
