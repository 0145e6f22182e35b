package introspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ridoystarlord/rhipster/schema"
	"github.com/ridoystarlord/rhipster/utils"
)

const generatedBy = "rhipster"

// PrintSchema renders tables as a Diesel table! schema description.
func PrintSchema(tables []ExistingTable, opts PrintOptions) string {
	var printed []ExistingTable
	for _, t := range tables {
		if !opts.Filter.Keep(t.TableName) {
			continue
		}
		if len(t.PrimaryKey) == 0 {
			utils.Warn("Table %s has no primary key and was skipped", t.TableName)
			continue
		}
		printed = append(printed, t)
	}

	var sections []string
	for _, t := range printed {
		sections = append(sections, printTable(t, opts.WithDocs))
	}
	if joins := joinables(printed); len(joins) > 0 {
		sections = append(sections, strings.Join(joins, "\n")+"\n")
	}
	if len(printed) > 1 {
		var b strings.Builder
		b.WriteString("diesel::allow_tables_to_appear_in_same_query!(\n")
		for _, t := range printed {
			fmt.Fprintf(&b, "    %s,\n", t.TableName)
		}
		b.WriteString(");\n")
		sections = append(sections, b.String())
	}

	out := fmt.Sprintf("// @generated automatically by %s.\n", generatedBy)
	for _, s := range sections {
		out += "\n" + s
	}
	return out
}

func printTable(t ExistingTable, withDocs bool) string {
	var b strings.Builder
	b.WriteString("diesel::table! {\n")
	if withDocs {
		fmt.Fprintf(&b, "    /// Representation of the `%s` table.\n", t.TableName)
		b.WriteString("    ///\n")
		fmt.Fprintf(&b, "    /// (Automatically generated by %s.)\n", generatedBy)
	}
	fmt.Fprintf(&b, "    %s (%s) {\n", t.TableName, strings.Join(fieldNames(t.PrimaryKey), ", "))

	for _, col := range t.Columns {
		tag := col.SQLType
		if col.IsNullable && !col.IsPrimaryKey {
			tag = "Nullable<" + tag + ">"
		}
		if withDocs {
			fmt.Fprintf(&b, "        /// The `%s` column of the `%s` table.\n", col.ColumnName, t.TableName)
			b.WriteString("        ///\n")
			fmt.Fprintf(&b, "        /// Its SQL type is `%s`.\n", tag)
			b.WriteString("        ///\n")
			fmt.Fprintf(&b, "        /// (Automatically generated by %s.)\n", generatedBy)
		}
		if schema.IsRustKeyword(col.ColumnName) {
			fmt.Fprintf(&b, "        #[sql_name = %q]\n", col.ColumnName)
		}
		fmt.Fprintf(&b, "        %s -> %s,\n", fieldName(col.ColumnName), tag)
	}

	b.WriteString("    }\n}\n")
	return b.String()
}

func fieldName(column string) string {
	if schema.IsRustKeyword(column) {
		return column + "_"
	}
	return column
}

func fieldNames(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = fieldName(c)
	}
	return out
}

// joinables lists a joinable! line for every child/parent pair linked by
// exactly one foreign key onto the parent's single-column primary key.
func joinables(tables []ExistingTable) []string {
	byName := map[string]ExistingTable{}
	for _, t := range tables {
		byName[t.TableName] = t
	}

	type pair struct{ child, parent string }
	count := map[pair]int{}
	column := map[pair]string{}
	invalid := map[pair]bool{}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			p := pair{t.TableName, fk.ReferencesTable}
			count[p]++
			column[p] = fk.ColumnName

			parent, ok := byName[fk.ReferencesTable]
			switch {
			case !ok, p.child == p.parent, len(parent.PrimaryKey) != 1:
				invalid[p] = true
			case fk.ReferencesColumn != "" && fk.ReferencesColumn != parent.PrimaryKey[0]:
				invalid[p] = true
			}
		}
	}

	var pairs []pair
	for p, n := range count {
		if n == 1 && !invalid[p] {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].child != pairs[j].child {
			return pairs[i].child < pairs[j].child
		}
		return pairs[i].parent < pairs[j].parent
	})

	var lines []string
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("diesel::joinable!(%s -> %s (%s));", p.child, p.parent, fieldName(column[p])))
	}
	return lines
}
