package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads custom themes and templates from a directory laid
// out like the embedded assets.
type FilesystemLoader struct {
	basePath string // absolute, symlinks resolved
	fsys     fs.FS
}

// NewFilesystemLoader returns ErrInvalidBasePath unless basePath is a
// readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	if _, err := os.ReadDir(absPath); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		case !isDir(absPath):
			return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
		default:
			return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
		}
	}

	return &FilesystemLoader{basePath: absPath, fsys: os.DirFS(absPath)}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LoadStyle reads {basePath}/styles/{name}.css.
func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return f.load(styleKind, name)
}

// LoadTemplate reads {basePath}/templates/{name}.html.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return f.load(templateKind, name)
}

// Themes lists the stylesheets under {basePath}/styles.
func (f *FilesystemLoader) Themes() ([]string, error) {
	return styleKind.names(f.fsys)
}

func (f *FilesystemLoader) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	if err := f.contained(filepath.Join(f.basePath, filepath.FromSlash(k.rel(name)))); err != nil {
		return "", err
	}
	return k.read(f.fsys, name)
}

// contained rejects paths that resolve outside basePath through a symlink.
// os.DirFS alone follows links wherever they point.
func (f *FilesystemLoader) contained(path string) error {
	// A missing file keeps its lexical path; reading it reports not found.
	if realPath, err := filepath.EvalSymlinks(path); err == nil {
		path = realPath
	}
	if !strings.HasPrefix(path, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return nil
}

var (
	_ AssetLoader = (*FilesystemLoader)(nil)
	_ ThemeLister = (*FilesystemLoader)(nil)
)
