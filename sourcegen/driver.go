// Package sourcegen expands generator-annotated Rust modules in place.
//
// A module is annotated with an attribute naming a registered generator:
//
//	#[sourcegen::sourcegen(generator = "crud_generator", model = "patient")]
//	mod patients_mod {}
//
// Expansion keeps the attribute, inserts a marker comment and replaces the
// module with the generator's output. Expanding an expanded file is a no-op.
package sourcegen

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/utils"
)

// ErrCodegen marks failures while expanding annotated modules.
var ErrCodegen = errors.New("code generation failed")

// Marker precedes every generated module.
const Marker = "// Generated. All manual edits to the block annotated with #[sourcegen...] will be discarded."

var (
	attributeRe = regexp.MustCompile(`(?m)^([ \t]*)#\[sourcegen::sourcegen\(([^)]*)\)\]`)
	argRe       = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
)

// Module is the annotated module as found in the source.
type Module struct {
	Name string
	Body string
}

// Generator produces the full replacement text of an annotated module,
// starting at the mod keyword. Returning "" leaves the module untouched.
type Generator interface {
	GenerateMod(args map[string]string, mod Module) (string, error)
}

// Driver dispatches annotated modules to generators by the attribute's
// generator argument.
type Driver struct {
	Generators map[string]Generator
}

// Run expands every .rs file below the src directory next to manifest.
func (d *Driver) Run(manifest string) error {
	if _, err := os.Stat(manifest); err != nil {
		return errors.Wrapf(ErrCodegen, "manifest: %v", err)
	}

	src := filepath.Join(filepath.Dir(manifest), "src")
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != ".rs" {
			return nil
		}
		changed, err := d.ExpandFile(path)
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		if changed {
			utils.Debug("Expanded %s", path)
		}
		return nil
	})
}

// ExpandFile expands path in place and reports whether it changed.
func (d *Driver) ExpandFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	out, err := d.Expand(string(data))
	if err != nil {
		return false, err
	}
	if out == string(data) {
		return false, nil
	}
	return true, os.WriteFile(path, []byte(out), info.Mode().Perm())
}

// Expand returns src with every annotated module regenerated.
func (d *Driver) Expand(src string) (string, error) {
	var out strings.Builder
	pos := 0
	for {
		loc := attributeRe.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			break
		}
		start, attrEnd := pos+loc[0], pos+loc[1]
		indent := src[pos+loc[2] : pos+loc[3]]
		args := parseArgs(src[pos+loc[4] : pos+loc[5]])
		line := lineOf(src, start)

		mod, modEnd, err := findModule(src, attrEnd)
		if err != nil {
			return "", errors.Wrapf(ErrCodegen, "line %d: %v", line, err)
		}

		name := args["generator"]
		gen, ok := d.Generators[name]
		if !ok {
			return "", errors.Wrapf(ErrCodegen, "line %d: unknown generator %q", line, name)
		}
		generated, err := gen.GenerateMod(args, mod)
		if err != nil {
			return "", errors.Wrapf(ErrCodegen, "line %d: %s: %v", line, name, err)
		}

		out.WriteString(src[pos:attrEnd])
		if generated == "" {
			out.WriteString(src[attrEnd:modEnd])
		} else {
			out.WriteString("\n" + indent + Marker + "\n")
			out.WriteString(reindent(strings.TrimRight(generated, "\n"), indent))
		}
		pos = modEnd
	}
	out.WriteString(src[pos:])
	return out.String(), nil
}

func parseArgs(s string) map[string]string {
	args := map[string]string{}
	for _, m := range argRe.FindAllStringSubmatch(s, -1) {
		args[m[1]] = m[2]
	}
	return args
}

func lineOf(src string, offset int) int {
	return strings.Count(src[:offset], "\n") + 1
}

func reindent(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = indent + l
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

var identRe = regexp.MustCompile(`^[A-Za-z_]\w*`)

// findModule parses the module item that follows an attribute ending at i
// and returns it together with the offset just past its closing brace.
func findModule(src string, i int) (Module, int, error) {
	i = skipTrivia(src, i)

	if strings.HasPrefix(src[i:], "pub") {
		i += len("pub")
		if j := skipTrivia(src, i); strings.HasPrefix(src[j:], "(") {
			end := strings.IndexByte(src[j:], ')')
			if end < 0 {
				return Module{}, 0, errors.New("unterminated visibility")
			}
			i = j + end + 1
		}
		i = skipTrivia(src, i)
	}

	if !strings.HasPrefix(src[i:], "mod") || !isSpace(byteAt(src, i+3)) {
		return Module{}, 0, errors.New("attribute is not followed by a module")
	}
	i = skipTrivia(src, i+3)

	name := identRe.FindString(src[i:])
	if name == "" {
		return Module{}, 0, errors.New("module has no name")
	}
	i = skipTrivia(src, i+len(name))

	if byteAt(src, i) != '{' {
		return Module{}, 0, errors.Errorf("module %s has no body", name)
	}
	end, err := matchBrace(src, i)
	if err != nil {
		return Module{}, 0, errors.Wrapf(err, "module %s", name)
	}
	return Module{Name: name, Body: src[i+1 : end]}, end + 1, nil
}

// skipTrivia skips whitespace and comments starting at i.
func skipTrivia(src string, i int) int {
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case strings.HasPrefix(src[i:], "//"):
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return len(src)
			}
			i += nl + 1
		case strings.HasPrefix(src[i:], "/*"):
			i = skipBlockComment(src, i)
		default:
			return i
		}
	}
	return i
}

// skipBlockComment returns the offset past the (possibly nested) block
// comment opening at i.
func skipBlockComment(src string, i int) int {
	depth := 0
	for i < len(src) {
		switch {
		case strings.HasPrefix(src[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(src[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(src)
}

// matchBrace returns the offset of the brace closing the one at open,
// ignoring braces inside comments, strings and character literals.
func matchBrace(src string, open int) (int, error) {
	depth := 0
	for i := open; i < len(src); {
		c := src[i]
		switch {
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
			i++
		case strings.HasPrefix(src[i:], "//") || strings.HasPrefix(src[i:], "/*"):
			i = skipTrivia(src, i)
		case c == '"':
			i = skipString(src, i)
		case c == 'r' && (byteAt(src, i+1) == '"' || byteAt(src, i+1) == '#') && !isIdentByte(byteAt(src, i-1)):
			i = skipRawString(src, i)
		case c == '\'':
			i = skipChar(src, i)
		default:
			i++
		}
	}
	return 0, errors.New("unbalanced braces")
}

func skipString(src string, i int) int {
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(src)
}

func skipRawString(src string, i int) int {
	j := i + 1
	for byteAt(src, j) == '#' {
		j++
	}
	if byteAt(src, j) != '"' {
		return i + 1
	}
	closing := "\"" + strings.Repeat("#", j-i-1)
	end := strings.Index(src[j+1:], closing)
	if end < 0 {
		return len(src)
	}
	return j + 1 + end + len(closing)
}

// skipChar skips a character literal at i. Lifetimes such as 'a are left
// alone apart from the quote.
func skipChar(src string, i int) int {
	if byteAt(src, i+1) == '\\' {
		if i+3 > len(src) {
			return len(src)
		}
		if end := strings.IndexByte(src[i+3:], '\''); end >= 0 {
			return i + 3 + end + 1
		}
		return len(src)
	}
	if byteAt(src, i+2) == '\'' {
		return i + 3
	}
	return i + 1
}

func byteAt(src string, i int) byte {
	if i < 0 || i >= len(src) {
		return 0
	}
	return src[i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
