// Package placeholder rewrites ##TOKEN## markers across a directory tree.
package placeholder

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/utils"
)

const (
	Database = "##DATABASE##"
	Name     = "##NAME##"
	Routes   = "##ROUTES##"
	Models   = "##MODELS##"
)

// Tokens lists every token the templates may carry.
var Tokens = []string{Database, Name, Routes, Models}

// Bindings maps a token to its replacement.
type Bindings map[string]string

func (b Bindings) tokens() []string {
	tokens := make([]string, 0, len(b))
	for tok := range b {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

func (b Bindings) replacer() *strings.Replacer {
	var pairs []string
	for _, tok := range b.tokens() {
		pairs = append(pairs, tok, b[tok])
	}
	return strings.NewReplacer(pairs...)
}

// Rewrite applies b to every regular file under root, in place. Files that
// contain none of the tokens are left untouched.
func Rewrite(root string, b Bindings) error {
	if len(b) == 0 {
		return nil
	}
	r := b.replacer()
	tokens := b.tokens()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if !containsAny(content, tokens) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "stat %s", path)
		}
		if err := os.WriteFile(path, []byte(r.Replace(string(content))), info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		utils.Debug("rewrote %s", path)
		return nil
	})
}

// Remaining returns the files under root that still contain any of tokens,
// relative to root and sorted.
func Remaining(root string, tokens ...string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if containsAny(content, tokens) {
			rel, _ := filepath.Rel(root, path)
			found = append(found, filepath.ToSlash(rel))
		}
		return nil
	})
	return found, err
}

func containsAny(content []byte, tokens []string) bool {
	for _, tok := range tokens {
		if bytes.Contains(content, []byte(tok)) {
			return true
		}
	}
	return false
}
