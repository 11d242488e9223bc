package media

import (
	"context"
	"os"

	"github.com/alnah/go-echoloop/internal/ffmpeg"
)

// commandRunner executes ffmpeg/ffprobe. *ffmpeg.Executor satisfies it.
type commandRunner interface {
	Run(ctx context.Context, bin string, args []string) error
	Output(ctx context.Context, bin string, args []string) ([]byte, error)
	RunOutput(ctx context.Context, bin string, args []string) (string, error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// dirMaker creates directories.
type dirMaker interface {
	MkdirAll(path string, perm os.FileMode) error
}

// fileRemover removes files.
type fileRemover interface {
	Remove(name string) error
}

// fileWriter writes whole files.
type fileWriter interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// --- Default implementations using real OS functions ---

// Compile-time interface verification.
var (
	_ commandRunner = (*ffmpeg.Executor)(nil)
	_ fileStatter   = osFS{}
	_ dirMaker      = osFS{}
	_ fileRemover   = osFS{}
	_ fileWriter    = osFS{}
)

// osFS implements the filesystem interfaces with the os package.
type osFS struct{}

func (osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (osFS) Remove(name string) error {
	return os.Remove(name)
}

func (osFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// exists reports whether name can be stat'ed.
func exists(s fileStatter, name string) bool {
	_, err := s.Stat(name)
	return err == nil
}
