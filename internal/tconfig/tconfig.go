// Package tconfig loads the plain key=value configuration files of spec
// §6 (telsched.cfg, telescoped.cfg, hc.cfg, filter.cfg, focus.cfg).
package tconfig

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxFileSize bounds a config file's size as a sanity check, mirroring
// the teacher's own config-loader validation shape.
const maxFileSize = 1 * 1024 * 1024

// File is a parsed key=value config file: comments (from '#') and blank
// lines are dropped, keys are case-preserved, duplicate keys keep the
// last occurrence (matching the source's line-oriented override model).
type File struct {
	path   string
	values map[string]string
}

// Load reads and parses a config file at path, validating its extension
// and size before reading — the same defensive shape the teacher's JSON
// config loader uses, adapted to this format.
func Load(path string) (*File, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".cfg" {
		return nil, fmt.Errorf("tconfig: config file must have .cfg extension, got %q", ext)
	}
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("tconfig: stat %s: %w", clean, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("tconfig: config file %s too large: %d bytes (max %d)", clean, info.Size(), maxFileSize)
	}

	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("tconfig: open %s: %w", clean, err)
	}
	defer f.Close()
	return parse(clean, f)
}

func parse(path string, r *os.File) (*File, error) {
	cf := &File{path: path, values: make(map[string]string)}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("tconfig: %s:%d: expected key=value, got %q", path, lineNo, line)
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if key == "" {
			return nil, fmt.Errorf("tconfig: %s:%d: empty key", path, lineNo)
		}
		cf.values[key] = val
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tconfig: %s: %w", path, err)
	}
	return cf, nil
}

// Has reports whether key was present in the file.
func (f *File) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// String returns key's raw value, or an error if missing — spec §7's
// Configuration error kind ("missing key") is fatal at startup, so
// callers are expected to propagate this rather than substitute silently.
func (f *File) String(key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("tconfig: %s: missing required key %q", f.path, key)
	}
	return v, nil
}

// StringDefault returns key's value, or def if absent.
func (f *File) StringDefault(key, def string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

// Float returns key's value parsed as a float64.
func (f *File) Float(key string) (float64, error) {
	s, err := f.String(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("tconfig: %s: key %q: %w", f.path, key, err)
	}
	return v, nil
}

// FloatDefault returns key's value parsed as a float64, or def if absent.
func (f *File) FloatDefault(key string, def float64) (float64, error) {
	if !f.Has(key) {
		return def, nil
	}
	return f.Float(key)
}

// Int returns key's value parsed as an int.
func (f *File) Int(key string) (int, error) {
	s, err := f.String(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("tconfig: %s: key %q: %w", f.path, key, err)
	}
	return v, nil
}

// Bool parses "0"/"1" (the source convention for boolean flags) as well
// as strconv.ParseBool's usual forms.
func (f *File) Bool(key string) (bool, error) {
	s, err := f.String(key)
	if err != nil {
		return false, err
	}
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("tconfig: %s: key %q: %w", f.path, key, err)
	}
	return v, nil
}

// BoolDefault returns key's value parsed as a bool, or def if absent.
func (f *File) BoolDefault(key string, def bool) (bool, error) {
	if !f.Has(key) {
		return def, nil
	}
	return f.Bool(key)
}
