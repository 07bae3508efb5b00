// Package asset defines the in-memory file stream that flows through a task
// pipeline, together with the functions that fill it from disk and write it
// back.
package asset

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// File is one element of a task's file stream.
type File struct {
	// Cwd is the working directory the task was started from.
	Cwd string
	// Base is the directory Path is relative to when written out.
	Base string
	// Path is the absolute path of the file.
	Path string

	Contents []byte
	Mode     fs.FileMode
	ModTime  time.Time
}

// Relative returns Path relative to Base in slash form.
func (f *File) Relative() string {
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filepath.Base(f.Path))
	}
	return filepath.ToSlash(rel)
}

// SetRelative moves the file to a new path below its base.
func (f *File) SetRelative(rel string) {
	f.Path = filepath.Join(f.Base, filepath.FromSlash(rel))
}

// Ext returns the lower-cased extension including the dot.
func (f *File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// Name returns the final path element.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	c := *f
	c.Contents = append([]byte(nil), f.Contents...)
	return &c
}

// Paths returns the absolute paths of the files in order.
func Paths(files []*File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}
