package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
)

// A file's contents alongside the name templates and outputs refer to it by
type NamedContent struct {
	Name    string
	Path    string
	Content []byte
}

// Resolve expands a glob pattern (with ** support) into a sorted list of files
func Resolve(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// NameFromPath is the base name of path without its last extension: contracts/ERC20Token.json -> ERC20Token
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

func ReadNamed(path string) (*NamedContent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return &NamedContent{
		Name:    NameFromPath(path),
		Path:    path,
		Content: content,
	}, nil
}

// OutputFileName converts a contract name to a snake_case file name with the given extension
func OutputFileName(name, ext string) string {
	fileName := strings.TrimPrefix(strcase.ToSnake(name), "_")
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return fileName
	}
	return fileName + "." + ext
}

// IsUpToDate reports whether dst exists and was modified no earlier than src.
func IsUpToDate(src, dst string) (bool, error) {
	dstInfo, err := os.Stat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", dst)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", src)
	}

	return !dstInfo.ModTime().Before(srcInfo.ModTime()), nil
}

// EnsureDir creates dir and any missing parents
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	return nil
}

// WriteFile writes data to path, creating its parent directories first
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
