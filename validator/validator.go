package validator

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/ridoystarlord/rhipster/schema"
)

// ValidationError represents a validation finding with details
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning"
}

func (e ValidationError) String() string {
	var b strings.Builder
	if e.Table != "" {
		fmt.Fprintf(&b, "[%s]", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ".%s", e.Column)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

func (r *ValidationResult) addError(kind, table, column, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Type:     kind,
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
		Severity: "error",
	})
}

func (r *ValidationResult) addWarning(kind, table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{
		Type:     kind,
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
		Severity: "warning",
	})
}

// Error joins every error message; empty when the schema is valid.
func (r *ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.String()
	}
	return strings.Join(msgs, "; ")
}

// ValidateSchema checks that code can be generated for every table: each
// name must pluralize lexically to a unique stem and carry a single-column
// primary key.
func ValidateSchema(s *schema.Schema) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if len(s.Tables) == 0 {
		result.addWarning("empty_schema", "", "", "Schema declares no tables; no handlers will be generated")
	}

	for _, table := range s.Tables {
		validateTable(table, result)
	}
	validateIdentifiers(s, result)

	result.Valid = len(result.Errors) == 0
	return result
}

func validateTable(table schema.TableSchema, result *ValidationResult) {
	stem := table.Stem()
	switch {
	case stem == "" && strings.HasSuffix(table.Name, "s"):
		result.addError("table_name", table.Name, "", "Table name '%s' leaves an empty model name once its trailing 's' is removed", table.Name)
	case stem == "":
		result.addError("table_name", table.Name, "", "Table name '%s' does not end in 's'", table.Name)
	case schema.IsRustKeyword(stem):
		result.addError("table_name", table.Name, "", "Model name '%s' derived from table '%s' is a Rust keyword", stem, table.Name)
	default:
		if singular := inflect.Singularize(table.Name); singular != stem {
			result.addWarning("irregular_plural", table.Name, "",
				"Table '%s' is named as model '%s' although its singular form is '%s'", table.Name, stem, singular)
		}
	}

	if len(table.Columns) == 0 {
		result.addError("no_columns", table.Name, "", "Table '%s' must have at least one column", table.Name)
		return
	}

	if len(table.PrimaryKey) != 1 {
		result.addError("primary_key", table.Name, "",
			"Table '%s' has a %d-column primary key; handlers need exactly one", table.Name, len(table.PrimaryKey))
		return
	}

	pk, _ := table.Column(table.PrimaryKey[0])
	pkType := pk.Type
	if pkType.Name == "Nullable" && pkType.Inner != nil {
		pkType = *pkType.Inner
	}
	switch {
	case !isRouteParam(pkType):
		result.addError("primary_key_type", table.Name, pk.Name,
			"Primary key '%s' of table '%s' is %s, which cannot be a route parameter", pk.Name, table.Name, pk.Type)
	case !isInteger(pkType):
		result.addWarning("primary_key_type", table.Name, pk.Name,
			"Primary key '%s' of table '%s' is %s, not an integer", pk.Name, table.Name, pk.Type)
	}
	if len(table.Columns) == 1 {
		result.addWarning("no_insertable_columns", table.Name, "",
			"Table '%s' has no columns besides its primary key; its insertable record is empty", table.Name)
	}
}

// templateOwner stands for the project template in clash reports.
const templateOwner = "<template>"

// templateIdents are declared or imported by every template's main.rs, or
// by the imports generated field types pull in.
var templateIdents = []string{
	"Database", "Status", "Json", "Serialize", "Deserialize",
	"BaseConfig", "EurekaClient", "PortData",
	"NaiveDate", "NaiveTime", "NaiveDateTime", "DateTime", "Utc", "BigDecimal", "Uuid",
	"schema", "rocket", "healthcheck", "error_status", "init_eureka",
}

// validateIdentifiers rejects tables whose generated module, type or handler
// names would clash with another table's or with the template's.
func validateIdentifiers(s *schema.Schema, result *ValidationResult) {
	owners := map[string]string{}
	for _, ident := range templateIdents {
		owners[ident] = templateOwner
	}
	stems := map[string]bool{}
	for _, table := range s.Tables {
		stem := table.Stem()
		if stem == "" {
			continue
		}
		if stems[stem] {
			result.addError("duplicate_stem", table.Name, "", "Model name '%s' is derived from more than one table", stem)
			continue
		}
		stems[stem] = true
		idents := []string{
			stem + "s_mod",
			"get_" + stem + "s",
			"get_" + stem,
			"post_" + stem,
			"delete_" + stem,
			inflect.Camelize(stem),
			"New" + inflect.Camelize(stem),
		}
		for _, ident := range idents {
			other, ok := owners[ident]
			switch {
			case ok && other == templateOwner:
				result.addError("duplicate_identifier", table.Name, "",
					"Table '%s' generates '%s', which the project template already declares", table.Name, ident)
				continue
			case ok && other != table.Name:
				result.addError("duplicate_identifier", table.Name, "",
					"Tables '%s' and '%s' both generate '%s'", other, table.Name, ident)
				continue
			}
			owners[ident] = table.Name
		}
	}
}

func isInteger(t schema.SQLType) bool {
	switch t.Name {
	case "SmallInt", "Smallint", "Int2", "Integer", "Int4", "BigInt", "Bigint", "Int8", "TinyInt", "Tinyint", "Unsigned":
		return true
	}
	return false
}

// isRouteParam reports whether the key type has a Rocket FromParam impl:
// integers, floats, bool, strings and Uuid.
func isRouteParam(t schema.SQLType) bool {
	if isInteger(t) {
		return true
	}
	switch t.Name {
	case "Float", "Float4", "Double", "Float8", "Bool",
		"Text", "Varchar", "Bpchar", "Char", "Citext", "Uuid":
		return true
	}
	return false
}
