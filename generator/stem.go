package generator

import (
	"regexp"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/schema"
)

var stemRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Stem is the lexical singular of a table name. Every identifier generated
// for a table derives from it.
type Stem string

// NewStem validates a model name given in a generator annotation.
func NewStem(model string) (Stem, error) {
	if !stemRe.MatchString(model) {
		return "", errors.Errorf("model %q is not a lower snake-case identifier", model)
	}
	if schema.IsRustKeyword(model) {
		return "", errors.Errorf("model %q is a Rust keyword", model)
	}
	return Stem(model), nil
}

// StemOf derives the stem of a table by dropping its trailing "s".
func StemOf(table schema.TableSchema) (Stem, error) {
	return StemOfPlural(table.Name)
}

// StemOfPlural strips the trailing 's' from a table name.
func StemOfPlural(name string) (Stem, error) {
	stem, ok := strings.CutSuffix(name, "s")
	if !ok || stem == "" {
		return "", errors.Errorf("table %s does not pluralize to a model name", name)
	}
	return NewStem(stem)
}

// Camel is the stem as used in lowercase identifiers. Stems are already
// snake case, so this is the stem itself.
func (s Stem) Camel() string { return string(s) }

// Pascal is the record type name, e.g. blog_post -> BlogPost.
func (s Stem) Pascal() string { return inflect.Camelize(string(s)) }

// Insertable is the insertion record type name.
func (s Stem) Insertable() string { return "New" + s.Pascal() }

// Plural is the table and schema module name.
func (s Stem) Plural() string { return s.Camel() + "s" }

// Module is the handler module name.
func (s Stem) Module() string { return s.Plural() + "_mod" }

func (s Stem) ListHandler() string   { return "get_" + s.Plural() }
func (s Stem) GetHandler() string    { return "get_" + s.Camel() }
func (s Stem) PostHandler() string   { return "post_" + s.Camel() }
func (s Stem) DeleteHandler() string { return "delete_" + s.Camel() }

// Handlers lists the handler names in route order.
func (s Stem) Handlers() []string {
	return []string{s.ListHandler(), s.GetHandler(), s.PostHandler(), s.DeleteHandler()}
}

// Routes lists the handlers qualified by their module, as registered with
// the router.
func (s Stem) Routes() []string {
	routes := make([]string, 0, 4)
	for _, h := range s.Handlers() {
		routes = append(routes, s.Module()+"::"+h)
	}
	return routes
}

// CollectionPath is the route of the list and create handlers.
func (s Stem) CollectionPath() string { return "/" + s.Plural() }

// ItemPath is the route of the get and delete handlers.
func (s Stem) ItemPath() string { return "/" + s.Plural() + "/<id>" }
