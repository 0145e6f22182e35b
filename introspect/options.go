package introspect

import (
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// PrintOptions mirrors the [print_schema] section of diesel.toml.
type PrintOptions struct {
	WithDocs bool
	Filter   Filter
}

// Filter keeps or drops tables by name. An empty filter keeps everything.
type Filter struct {
	OnlyTables   []*regexp.Regexp
	ExceptTables []*regexp.Regexp
}

type dieselFile struct {
	PrintSchema struct {
		File     string `toml:"file"`
		WithDocs bool   `toml:"with_docs"`
		Filter   struct {
			OnlyTables   []string `toml:"only_tables"`
			ExceptTables []string `toml:"except_tables"`
		} `toml:"filter"`
	} `toml:"print_schema"`
}

// LoadPrintOptions reads print options from a diesel.toml. A missing file
// yields the defaults.
func LoadPrintOptions(path string) (PrintOptions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return PrintOptions{}, nil
	}
	if err != nil {
		return PrintOptions{}, errors.Wrapf(err, "reading %s", path)
	}

	var file dieselFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return PrintOptions{}, errors.Wrapf(err, "parsing %s", path)
	}

	opts := PrintOptions{WithDocs: file.PrintSchema.WithDocs}
	if opts.Filter.OnlyTables, err = compileAll(file.PrintSchema.Filter.OnlyTables); err != nil {
		return PrintOptions{}, errors.Wrapf(err, "%s: only_tables", path)
	}
	if opts.Filter.ExceptTables, err = compileAll(file.PrintSchema.Filter.ExceptTables); err != nil {
		return PrintOptions{}, errors.Wrapf(err, "%s: except_tables", path)
	}
	return opts, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Keep reports whether the table passes the filter.
func (f Filter) Keep(table string) bool {
	if len(f.OnlyTables) > 0 && !matchesAny(f.OnlyTables, table) {
		return false
	}
	return !matchesAny(f.ExceptTables, table)
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
