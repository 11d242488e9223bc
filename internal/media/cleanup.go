package media

import (
	"errors"
	"fmt"
	"io/fs"
)

// Cleanup removes every segment file. Files that are already gone are not
// errors. All other failures are joined and returned; removal continues
// past them.
func Cleanup(segments []Segment) error {
	return cleanup(osFS{}, segments)
}

func cleanup(files fileRemover, segments []Segment) error {
	var errs []error
	for _, seg := range segments {
		if err := files.Remove(seg.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", seg.Path, err))
		}
	}
	return errors.Join(errs...)
}
