// Package templates holds the skeleton project trees the scaffolder extracts.
//
// Each supported dialect ships two archives: "main", the service source tree,
// and "migrations", the migrations directory. Both carry the ##DATABASE##,
// ##NAME##, ##ROUTES## and ##MODELS## placeholders.
package templates

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/database"
	"github.com/ridoystarlord/rhipster/utils"
)

//go:embed all:data
var dataFS embed.FS

type Archive string

const (
	Main       Archive = "main"
	Migrations Archive = "migrations"
)

// ErrConflict is returned when extraction would overwrite an existing file.
var ErrConflict = errors.New("file already exists")

// Store gives read-only access to the archives of one dialect.
type Store struct {
	dialect database.Dialect
	fsys    fs.FS
}

// For returns the store for dialect.
func For(dialect database.Dialect) (*Store, error) {
	root := path.Join("data", string(dialect))
	if _, err := fs.Stat(dataFS, root); err != nil {
		return nil, errors.Wrapf(database.ErrUnknownDialect, "no templates for %q", dialect)
	}
	sub, err := fs.Sub(dataFS, root)
	if err != nil {
		return nil, err
	}
	return &Store{dialect: dialect, fsys: sub}, nil
}

// Dialect is the database dialect the archives target.
func (s *Store) Dialect() database.Dialect {
	return s.dialect
}

// Files lists the regular files of an archive, slash-separated and sorted.
func (s *Store) Files(a Archive) ([]string, error) {
	var files []string
	err := fs.WalkDir(s.fsys, string(a), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(string(a), p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing archive %s", a)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile returns one file of an archive.
func (s *Store) ReadFile(a Archive, name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, path.Join(string(a), name))
}

// Extract writes archive a below dir, creating directories as needed.
// Existing files are never overwritten.
func (s *Store) Extract(a Archive, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	files, err := s.Files(a)
	if err != nil {
		return err
	}

	for _, name := range files {
		data, err := s.ReadFile(a, name)
		if err != nil {
			return errors.Wrapf(err, "reading template %s", name)
		}
		if err := writeNew(filepath.Join(dir, filepath.FromSlash(name)), data); err != nil {
			return err
		}
		utils.Debug("extracted %s", filepath.Join(dir, name))
	}
	return nil
}

func writeNew(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(target))
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrap(ErrConflict, target)
		}
		return errors.Wrapf(err, "creating %s", target)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", target)
	}
	return errors.Wrapf(f.Close(), "closing %s", target)
}
