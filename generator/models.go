package generator

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/schema"
)

// Derive sets for the two record shapes emitted per table.
var (
	QueryableDerives  = []string{"Queryable", "Serialize"}
	InsertableDerives = []string{"Insertable", "Deserialize"}
)

// ParseModels parses a schema description and emits one record struct per
// table. The insertable shape (includePrimaryKey false) leaves out primary
// key columns. It also returns the table names in declaration order.
func ParseModels(text, purpose string, includePrimaryKey bool, derives []string) (string, []string, error) {
	s, err := schema.Parse(text)
	if err != nil {
		return "", nil, err
	}
	out, err := EmitModels(s, purpose, includePrimaryKey, derives)
	if err != nil {
		return "", nil, err
	}
	return out, s.TableNames(), nil
}

// EmitModels renders the record structs for an already parsed schema.
func EmitModels(s *schema.Schema, purpose string, includePrimaryKey bool, derives []string) (string, error) {
	if purpose == "" {
		return "", errors.New("model purpose must not be empty")
	}
	if len(derives) == 0 {
		return "", errors.New("at least one derive is required")
	}

	var b strings.Builder
	for _, table := range s.Tables {
		stem, err := StemOf(table)
		if err != nil {
			return "", err
		}
		name := stem.Pascal()
		if !includePrimaryKey {
			name = stem.Insertable()
		}

		fmt.Fprintf(&b, "/// %s %s for the `%s` table.\n", derives[0], purpose, table.Name)
		fmt.Fprintf(&b, "#[derive(%s)]\n", strings.Join(derives, ", "))
		if hasDerive(derives, "Insertable") {
			fmt.Fprintf(&b, "#[diesel(table_name = %s)]\n", table.Name)
		}
		fmt.Fprintf(&b, "pub struct %s {\n", name)
		for _, col := range table.Columns {
			if !includePrimaryKey && table.IsPrimaryKey(col.Name) {
				continue
			}
			if col.SQLName != "" {
				fmt.Fprintf(&b, "    #[serde(rename = %q)]\n", col.SQLName)
			}
			fmt.Fprintf(&b, "    pub %s: %s,\n", col.Name, col.Type.RustType())
		}
		b.WriteString("}\n\n")
	}
	return b.String(), nil
}

// Imports renders the use lines the schema's field types need, one per
// crate.
func Imports(s *schema.Schema) string {
	var crates []string
	items := map[string][]string{}
	for _, imp := range s.Imports() {
		if _, ok := items[imp.Crate]; !ok {
			crates = append(crates, imp.Crate)
		}
		items[imp.Crate] = append(items[imp.Crate], imp.Item)
	}

	var b strings.Builder
	for _, crate := range crates {
		if list := items[crate]; len(list) == 1 {
			fmt.Fprintf(&b, "use %s::%s;\n", crate, list[0])
		} else {
			fmt.Fprintf(&b, "use %s::{%s};\n", crate, strings.Join(list, ", "))
		}
	}
	return b.String()
}

func hasDerive(derives []string, name string) bool {
	for _, d := range derives {
		if strings.TrimSpace(d) == name {
			return true
		}
	}
	return false
}
