package build

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/conneroisu/unreact/internal/errors"
)

// output writes files below one directory and digests everything it writes.
type output struct {
	root   string
	digest *xxhash.Digest
	files  int
}

func newOutput(root string) *output {
	return &output{root: root, digest: xxhash.New()}
}

// reset removes the output directory and recreates it with the styles and
// public subdirectories.
func (o *output) reset() error {
	if err := os.RemoveAll(o.root); err != nil {
		return errors.NewIOError(errors.CodeDirectoryRemove, "cannot remove output directory", err).
			WithPath(o.root)
	}
	for _, dir := range []string{o.root, filepath.Join(o.root, "styles"), filepath.Join(o.root, "public")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIOError(errors.CodeDirectoryCreate, "cannot create directory", err).
				WithPath(dir)
		}
	}
	return nil
}

// write stores data at rel, a slash path below the output root.
func (o *output) write(rel string, data []byte) error {
	full := filepath.Join(o.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.NewIOError(errors.CodeDirectoryCreate, "cannot create directory", err).
			WithPath(filepath.Dir(full))
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return errors.NewIOError(errors.CodeFileWrite, "cannot write file", err).WithPath(full)
	}
	o.record(rel, data)
	return nil
}

// copyTree copies src recursively to rel below the output root.
func (o *output) copyTree(src, rel string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError(errors.CodeDirectoryCopy, "cannot read directory", err).WithPath(path)
		}
		sub, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(o.root, filepath.FromSlash(rel), sub)

		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.NewIOError(errors.CodeDirectoryCreate, "cannot create directory", err).
					WithPath(target)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return o.copyFile(path, target, filepath.ToSlash(filepath.Join(rel, sub)))
	})
}

func (o *output) copyFile(src, dst, rel string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewIOError(errors.CodeFileRead, "cannot open file", err).WithPath(src)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return errors.NewIOError(errors.CodeFileWrite, "cannot create file", err).WithPath(dst)
	}

	o.digest.WriteString(rel)
	o.digest.Write([]byte{0})
	if _, err := io.Copy(io.MultiWriter(out, o.digest), in); err != nil {
		_ = out.Close()
		return errors.NewIOError(errors.CodeDirectoryCopy, "cannot copy file", err).WithPath(src)
	}
	o.digest.Write([]byte{0})
	o.files++

	if err := out.Close(); err != nil {
		return errors.NewIOError(errors.CodeFileWrite, "cannot close file", err).WithPath(dst)
	}
	return nil
}

func (o *output) record(rel string, data []byte) {
	o.digest.WriteString(rel)
	o.digest.Write([]byte{0})
	o.digest.Write(data)
	o.digest.Write([]byte{0})
	o.files++
}

// requireDirs fails with a recoverable build error for the first directory
// that is missing.
func requireDirs(dirs ...string) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err == nil && !info.IsDir() {
			err = fs.ErrInvalid
		}
		if err != nil {
			return errors.NewBuildError(errors.CodeSourceDirMissing, "source directory missing", err).
				WithPath(dir)
		}
	}
	return nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.CodeFileRead, "cannot read file", err).WithPath(path)
	}
	return string(data), nil
}
