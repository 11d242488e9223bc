package config

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config file keys.
const (
	KeyOutputDir  = "output-dir"
	KeySilenceDir = "silence-dir"
)

// Keys lists every key accepted by the config file.
var Keys = []string{KeyOutputDir, KeySilenceDir}

// appName names the configuration directory.
const appName = "echoloop"

// ErrUnknownKey indicates a config key outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// ErrNotDirectory indicates a configured directory path is a file.
var ErrNotDirectory = errors.New("path is not a directory")

// ErrNotWritable indicates a configured directory cannot be written to.
var ErrNotWritable = errors.New("directory is not writable")

// File is the persistent user configuration, one key=value per line.
type File struct {
	path string
}

// NewFile returns a File stored at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultFile returns the File under the user config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/echoloop/config.
func DefaultFile() (*File, error) {
	d, err := dir()
	if err != nil {
		return nil, err
	}
	return NewFile(filepath.Join(d, "config")), nil
}

// dir returns the configuration directory path.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the location of the file.
func (f *File) Path() string {
	return f.path
}

// ValidKey reports whether key is a known config key.
func ValidKey(key string) bool {
	return slices.Contains(Keys, key)
}

// List returns every stored value. A missing file yields an empty map.
func (f *File) List() (map[string]string, error) {
	data, err := parseFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// Get returns the value for key, or "" if it is not set.
func (f *File) Get(key string) (string, error) {
	data, err := f.List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// Set stores key=value, keeping other entries. Comments are not preserved.
func (f *File) Set(key, value string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := f.List()
	if err != nil {
		return err
	}
	data[key] = value

	return writeFile(f.path, data)
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	fh, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(fh)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// writeFile writes data sorted by key.
func writeFile(p string, data map[string]string) error {
	var sb strings.Builder
	for _, key := range slices.Sorted(maps.Keys(data)) {
		fmt.Fprintf(&sb, "%s=%s\n", key, data[key])
	}
	if err := os.WriteFile(p, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// EnsureOutputDir checks that d is usable as a directory for generated
// files, creating it if missing.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
			return fmt.Errorf("cannot create directory: %w", err)
		}
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, d)
	}

	probe, err := os.CreateTemp(d, ".echoloop-write-test-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name) // Best effort cleanup, ignore error

	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
