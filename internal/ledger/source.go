package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"murmur/internal/fileutil"
)

// SourceFile identifies a media file by its content hash.
type SourceFile struct {
	Path string
	Hash string
	Size int64
	Dir  string
}

// Name returns the file's base name.
func (s SourceFile) Name() string {
	return filepath.Base(s.Path)
}

// NewSourceFile stats and hashes path.
func NewSourceFile(path string) (SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return SourceFile{}, err
	}
	if !info.Mode().IsRegular() {
		return SourceFile{}, fmt.Errorf("%s is not a regular file", abs)
	}
	hash, err := fileutil.HashFile(abs)
	if err != nil {
		return SourceFile{}, err
	}
	return SourceFile{
		Path: abs,
		Hash: hash,
		Size: info.Size(),
		Dir:  filepath.Dir(abs),
	}, nil
}
