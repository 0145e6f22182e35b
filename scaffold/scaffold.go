// Package scaffold runs the whole generation pipeline: it extracts the
// project template, applies the migrations, introspects the result and
// emits models and handlers into the new project.
package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/database"
	"github.com/ridoystarlord/rhipster/generator"
	"github.com/ridoystarlord/rhipster/introspect"
	"github.com/ridoystarlord/rhipster/placeholder"
	"github.com/ridoystarlord/rhipster/runner"
	"github.com/ridoystarlord/rhipster/schema"
	"github.com/ridoystarlord/rhipster/sourcegen"
	"github.com/ridoystarlord/rhipster/templates"
	"github.com/ridoystarlord/rhipster/utils"
	"github.com/ridoystarlord/rhipster/validator"
)

// InitMigration is the template migration that receives the user's scripts.
const InitMigration = "00000000000001_init_tables"

const routeIndent = "                "

// Options are the four command-line arguments.
type Options struct {
	Target      string
	DatabaseURL string
	// UpSQL and DownSQL are paths to the forward and reverse scripts.
	UpSQL   string
	DownSQL string
}

type scaffolder struct {
	opts  Options
	state State

	store   *templates.Store
	db      *database.DB
	schema  *schema.Schema
	stems   []generator.Stem
	text    string
	records string
}

// Run generates the project described by opts. On failure the partially
// generated tree is left in place and the returned error is an *Error.
func Run(ctx context.Context, opts Options) error {
	s := &scaffolder{opts: opts}
	defer s.close()

	steps := []struct {
		name string
		run  func(context.Context) error
		done State
	}{
		{"creating target", s.createTarget, Init},
		{"extracting templates", s.extract, Extracted},
		{"configuring project", s.configure, Configured},
		{"copying migrations", s.copyMigrations, Configured},
		{"running migrations", s.migrate, Migrated},
		{"introspecting database", s.introspect, Introspected},
		{"generating models", s.models, ModelsWritten},
		{"rewriting sources", s.rewriteSources, SourcesRewritten},
		{"generating handlers", s.handlers, HandlersGenerated},
	}

	for _, step := range steps {
		utils.Step("%s", capitalize(step.name))
		if err := step.run(ctx); err != nil {
			var serr *Error
			if errors.As(err, &serr) {
				serr.State, serr.Step = s.state, step.name
				return serr
			}
			return &Error{Kind: IoError, State: s.state, Step: step.name, Err: err}
		}
		s.state = step.done
	}

	utils.Success("Project %s generated", opts.Target)
	return nil
}

func (s *scaffolder) close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *scaffolder) createTarget(context.Context) error {
	dialect, err := database.InferDialect(s.opts.DatabaseURL)
	if err != nil {
		return &Error{Kind: ArgError, Err: err}
	}
	store, err := templates.For(dialect)
	if err != nil {
		return &Error{Kind: ArgError, Err: err}
	}
	s.store = store

	if err := os.Mkdir(s.opts.Target, 0755); err != nil {
		return err
	}
	utils.Debug("Using %s templates", s.store.Dialect())
	return nil
}

func (s *scaffolder) extract(context.Context) error {
	if err := s.store.Extract(templates.Main, s.opts.Target); err != nil {
		return err
	}
	return s.store.Extract(templates.Migrations, s.path("migrations"))
}

func (s *scaffolder) configure(context.Context) error {
	return placeholder.Rewrite(s.opts.Target, placeholder.Bindings{
		placeholder.Database: s.opts.DatabaseURL,
		placeholder.Name:     s.name(),
	})
}

func (s *scaffolder) copyMigrations(context.Context) error {
	dir := s.path("migrations", InitMigration)
	for _, f := range []struct{ src, dst string }{
		{s.opts.UpSQL, "up.sql"},
		{s.opts.DownSQL, "down.sql"},
	} {
		src, dst := f.src, f.dst
		data, err := os.ReadFile(src)
		if err != nil {
			return errors.Wrapf(err, "reading %s", src)
		}
		if err := os.WriteFile(filepath.Join(dir, dst), data, 0644); err != nil {
			return errors.Wrapf(err, "writing %s", dst)
		}
	}
	return nil
}

func (s *scaffolder) migrate(ctx context.Context) error {
	db, err := database.Open(ctx, s.opts.DatabaseURL)
	if err != nil {
		return &Error{Kind: MigrationError, Err: err}
	}
	s.db = db

	if err := runner.ApplyMigrations(ctx, db, s.path("migrations")); err != nil {
		return &Error{Kind: MigrationError, Err: err}
	}

	records, err := runner.Applied(ctx, db)
	if err != nil {
		return &Error{Kind: MigrationError, Err: err}
	}
	for _, r := range records {
		utils.Debug("migration %s run on %s", r.Version, r.RunOn)
	}
	return nil
}

func (s *scaffolder) introspect(ctx context.Context) error {
	opts, err := introspect.LoadPrintOptions(s.path("diesel.toml"))
	if err != nil {
		return &Error{Kind: IntrospectionError, Err: err}
	}

	tables, err := introspect.IntrospectDatabase(ctx, s.db)
	if err != nil {
		return &Error{Kind: IntrospectionError, Err: err}
	}
	s.text = introspect.PrintSchema(tables, opts)

	utils.Info("Found %d table(s)", len(tables))
	return os.WriteFile(s.path("src", "schema.rs"), []byte(s.text), 0644)
}

func (s *scaffolder) models(context.Context) error {
	parsed, err := schema.Parse(s.text)
	if err != nil {
		return &Error{Kind: ParseError, Err: err}
	}

	result := validator.ValidateSchema(parsed)
	for _, w := range result.Warnings {
		utils.Warn("%s", w)
	}
	if !result.Valid {
		return &Error{Kind: ParseError, Err: errors.Wrap(schema.ErrParse, result.Error())}
	}
	s.schema = parsed

	queryable, _, err := generator.ParseModels(s.text, "model", true, generator.QueryableDerives)
	if err != nil {
		return &Error{Kind: ParseError, Err: err}
	}
	insertable, plurals, err := generator.ParseModels(s.text, "model", false, generator.InsertableDerives)
	if err != nil {
		return &Error{Kind: ParseError, Err: err}
	}
	s.records = queryable + insertable

	for _, plural := range plurals {
		stem, err := generator.StemOfPlural(plural)
		if err != nil {
			return &Error{Kind: ParseError, Err: err}
		}
		s.stems = append(s.stems, stem)
	}
	return nil
}

// modelText is the ##MODELS## replacement: imports, record structs and one
// annotated handler skeleton per table.
func (s *scaffolder) modelText() string {
	var b strings.Builder
	if imports := generator.Imports(s.schema); imports != "" {
		b.WriteString(imports + "\n")
	}
	b.WriteString(s.records)

	skeletons := make([]string, len(s.stems))
	for i, stem := range s.stems {
		skeletons[i] = generator.Skeleton(stem)
	}
	b.WriteString(strings.Join(skeletons, "\n"))
	return b.String()
}

// routeText is the ##ROUTES## replacement.
func (s *scaffolder) routeText() string {
	var lines []string
	for _, stem := range s.stems {
		for _, route := range stem.Routes() {
			lines = append(lines, routeIndent+route+",")
		}
	}
	return strings.Join(lines, "\n")
}

func (s *scaffolder) rewriteSources(context.Context) error {
	err := placeholder.Rewrite(s.path("src"), placeholder.Bindings{
		placeholder.Database: s.opts.DatabaseURL,
		placeholder.Name:     s.name(),
		placeholder.Routes:   s.routeText(),
		placeholder.Models:   s.modelText(),
	})
	if err != nil {
		return err
	}

	found, err := placeholder.Remaining(s.opts.Target, placeholder.Tokens...)
	if err != nil {
		return err
	}
	// The user's migration scripts are copied verbatim and may mention tokens.
	var left []string
	for _, p := range found {
		if !strings.HasPrefix(filepath.ToSlash(p), "migrations/") {
			left = append(left, p)
		}
	}
	if len(left) > 0 {
		return &Error{Kind: CodegenError, Err: errors.Wrapf(sourcegen.ErrCodegen, "unreplaced tokens in %s", strings.Join(left, ", "))}
	}
	return nil
}

func (s *scaffolder) handlers(context.Context) error {
	driver := &sourcegen.Driver{Generators: map[string]sourcegen.Generator{
		generator.CrudGeneratorName: &generator.CrudGenerator{Schema: s.schema},
	}}
	if err := driver.Run(s.path("Cargo.toml")); err != nil {
		return &Error{Kind: CodegenError, Err: err}
	}
	utils.Info("Generated handlers for %d table(s)", len(s.stems))
	return nil
}

func (s *scaffolder) path(elem ...string) string {
	return filepath.Join(append([]string{s.opts.Target}, elem...)...)
}

// name is the project name: the last element of the target path.
func (s *scaffolder) name() string {
	return filepath.Base(filepath.Clean(s.opts.Target))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
