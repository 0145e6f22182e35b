package schema

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrParse marks schema text the parser cannot accept.
var ErrParse = errors.New("schema parse error")

var (
	tableOpenRe  = regexp.MustCompile(`^(?:diesel::)?table!\s*\{$`)
	tableHeadRe  = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\.([A-Za-z_]\w*))?\s*\(([^)]*)\)\s*\{$`)
	columnRe     = regexp.MustCompile(`^([A-Za-z_]\w*)\s*->\s*(.+?)\s*,?$`)
	sqlNameRe    = regexp.MustCompile(`^#\[sql_name\s*=\s*"([^"]+)"\]$`)
	joinableRe   = regexp.MustCompile(`^(?:diesel::)?joinable!\(\s*(\w+)\s*->\s*(\w+)\s*\(\s*(\w+)\s*\)\s*\);$`)
	coQueryOpen  = regexp.MustCompile(`^(?:diesel::)?allow_tables_to_appear_in_same_query!\(`)
	identifierRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

type parseState int

const (
	topLevel parseState = iota
	inTableBlock
	inColumns
	afterColumns
	inCoQuery
)

type parser struct {
	schema  Schema
	state   parseState
	line    int
	table   *TableSchema
	docs    []string
	sqlName string
	coQuery strings.Builder
}

// Parse reads a Diesel schema description.
func Parse(text string) (*Schema, error) {
	p := &parser{}
	for _, line := range strings.Split(text, "\n") {
		p.line++
		if err := p.parseLine(strings.TrimSpace(line)); err != nil {
			return nil, errors.Wrapf(ErrParse, "line %d: %v", p.line, err)
		}
	}
	if p.state != topLevel {
		return nil, errors.Wrap(ErrParse, "unexpected end of input")
	}
	if err := p.check(); err != nil {
		return nil, errors.Wrap(ErrParse, err.Error())
	}
	return &p.schema, nil
}

func (p *parser) parseLine(line string) error {
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "///") {
		if p.state == inTableBlock {
			p.docs = append(p.docs, strings.TrimSpace(strings.TrimPrefix(line, "///")))
		}
		return nil
	}
	if strings.HasPrefix(line, "//") || strings.HasPrefix(line, "use ") {
		return nil
	}

	switch p.state {
	case topLevel:
		return p.parseTopLevel(line)
	case inTableBlock:
		return p.parseTableHead(line)
	case inColumns:
		return p.parseColumn(line)
	case afterColumns:
		if line != "}" {
			return errors.Errorf("expected } closing table! for %s, got %q", p.table.Name, line)
		}
		p.schema.Tables = append(p.schema.Tables, *p.table)
		p.table = nil
		p.state = topLevel
		return nil
	case inCoQuery:
		return p.collectCoQuery(line)
	}
	return nil
}

func (p *parser) parseTopLevel(line string) error {
	if tableOpenRe.MatchString(line) {
		p.state = inTableBlock
		p.docs = nil
		return nil
	}
	if m := joinableRe.FindStringSubmatch(line); m != nil {
		p.schema.Joinables = append(p.schema.Joinables, Joinable{Child: m[1], Parent: m[2], Column: m[3]})
		return nil
	}
	if loc := coQueryOpen.FindStringIndex(line); loc != nil {
		p.state = inCoQuery
		return p.collectCoQuery(line[loc[1]:])
	}
	return errors.Errorf("unexpected %q", line)
}

func (p *parser) parseTableHead(line string) error {
	m := tableHeadRe.FindStringSubmatch(line)
	if m == nil {
		return errors.Errorf("expected table declaration, got %q", line)
	}
	if m[2] != "" {
		return errors.Errorf("schema-qualified table %s.%s is not supported", m[1], m[2])
	}

	var pk []string
	for _, name := range strings.Split(m[3], ",") {
		name = strings.TrimSpace(name)
		if !identifierRe.MatchString(name) {
			return errors.Errorf("bad primary key column %q in table %s", name, m[1])
		}
		pk = append(pk, name)
	}

	p.table = &TableSchema{Name: m[1], PrimaryKey: pk, Doc: p.docs}
	p.docs = nil
	p.state = inColumns
	return nil
}

func (p *parser) parseColumn(line string) error {
	if line == "}" {
		p.state = afterColumns
		return nil
	}
	if m := sqlNameRe.FindStringSubmatch(line); m != nil {
		p.sqlName = m[1]
		return nil
	}

	m := columnRe.FindStringSubmatch(line)
	if m == nil {
		return errors.Errorf("expected column declaration in table %s, got %q", p.table.Name, line)
	}
	typ, err := parseType(m[2])
	if err != nil {
		return errors.Wrapf(err, "column %s.%s", p.table.Name, m[1])
	}
	if _, dup := p.table.Column(m[1]); dup {
		return errors.Errorf("duplicate column %s.%s", p.table.Name, m[1])
	}

	p.table.Columns = append(p.table.Columns, ColumnSchema{
		Name:     m[1],
		SQLName:  p.sqlName,
		Type:     typ,
		Nullable: typ.Name == nullableTag,
	})
	p.sqlName = ""
	return nil
}

func (p *parser) collectCoQuery(line string) error {
	body, closed := strings.CutSuffix(line, ");")
	p.coQuery.WriteString(body)
	p.coQuery.WriteByte(',')
	if !closed {
		return nil
	}

	for _, name := range strings.Split(p.coQuery.String(), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !identifierRe.MatchString(name) {
			return errors.Errorf("bad table name %q in allow_tables_to_appear_in_same_query!", name)
		}
		p.schema.CoQuery = append(p.schema.CoQuery, name)
	}
	p.coQuery.Reset()
	p.state = topLevel
	return nil
}

// check verifies cross references once the whole text is read.
func (p *parser) check() error {
	seen := map[string]bool{}
	for _, t := range p.schema.Tables {
		if seen[t.Name] {
			return errors.Errorf("table %s declared twice", t.Name)
		}
		seen[t.Name] = true
		for _, pk := range t.PrimaryKey {
			if _, ok := t.Column(pk); !ok {
				return errors.Errorf("primary key column %s is not a column of %s", pk, t.Name)
			}
		}
	}
	for _, j := range p.schema.Joinables {
		if !seen[j.Child] || !seen[j.Parent] {
			return errors.Errorf("joinable!(%s -> %s) names an undeclared table", j.Child, j.Parent)
		}
	}
	for _, name := range p.schema.CoQuery {
		if !seen[name] {
			return errors.Errorf("allow_tables_to_appear_in_same_query! names undeclared table %s", name)
		}
	}
	return nil
}
