package generator

import (
	"bytes"
	"text/template"

	"github.com/pkg/errors"

	"github.com/ridoystarlord/rhipster/schema"
	"github.com/ridoystarlord/rhipster/sourcegen"
)

// CrudGeneratorName is the generator name used in module annotations.
const CrudGeneratorName = "crud_generator"

const defaultIDType = "i32"

var crudTemplate = template.Must(template.New("crud").Parse(`mod {{.Stem.Module}} {
    use super::*;

    #[get("{{.Stem.CollectionPath}}")]
    pub(crate) async fn {{.Stem.ListHandler}}(db: Database) -> Result<Json<Vec<{{.Stem.Pascal}}>>, Status> {
        db.run(|c| {{.Stem.Plural}}::table.load::<{{.Stem.Pascal}}>(c))
            .await
            .map(Json)
            .map_err(error_status)
    }

    #[get("{{.Stem.ItemPath}}")]
    pub(crate) async fn {{.Stem.GetHandler}}(db: Database, id: {{.IDType}}) -> Result<Json<{{.Stem.Pascal}}>, Status> {
        let {{.Stem.Camel}} = db
            .run(move |c| {{.Stem.Plural}}::table.find(id).first::<{{.Stem.Pascal}}>(c))
            .await
            .map_err(error_status)?;

        Ok(Json({{.Stem.Camel}}))
    }

    #[post("{{.Stem.CollectionPath}}", data = "<data>")]
    pub(crate) async fn {{.Stem.PostHandler}}(
        db: Database,
        data: Json<{{.Stem.Insertable}}>,
    ) -> Result<Status, Status> {
        db.run(|c| {
            diesel::insert_into({{.Stem.Plural}}::table)
                .values(data.into_inner())
                .execute(c)
        })
        .await
        .map(|_| Status::Created)
        .map_err(error_status)
    }

    #[delete("{{.Stem.ItemPath}}")]
    pub(crate) async fn {{.Stem.DeleteHandler}}(db: Database, id: {{.IDType}}) -> Result<Status, Status> {
        let deleted = db
            .run(move |c| diesel::delete({{.Stem.Plural}}::table.find(id)).execute(c))
            .await
            .map_err(error_status)?;

        match deleted {
            0 => Err(Status::NotFound),
            _ => Ok(Status::NoContent),
        }
    }
}
`))

// CrudGenerator emits the list, get, create and delete handlers for one
// table. With a Schema it takes the id type from the table's primary key.
type CrudGenerator struct {
	Schema *schema.Schema
}

var _ sourcegen.Generator = (*CrudGenerator)(nil)

type crudData struct {
	Stem   Stem
	IDType string
}

func (g *CrudGenerator) GenerateMod(args map[string]string, _ sourcegen.Module) (string, error) {
	model, ok := args["model"]
	if !ok {
		return "", errors.New("missing model argument")
	}
	stem, err := NewStem(model)
	if err != nil {
		return "", err
	}

	idType, err := g.idType(stem)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := crudTemplate.Execute(&buf, crudData{Stem: stem, IDType: idType}); err != nil {
		return "", errors.Wrap(err, "executing template")
	}
	return buf.String(), nil
}

func (g *CrudGenerator) idType(stem Stem) (string, error) {
	if g.Schema == nil {
		return defaultIDType, nil
	}

	table, ok := g.Schema.Table(stem.Plural())
	if !ok {
		return "", errors.Errorf("no table %s for model %s", stem.Plural(), stem)
	}
	if len(table.PrimaryKey) != 1 {
		return "", errors.Errorf("table %s has a composite primary key (%d columns)", table.Name, len(table.PrimaryKey))
	}

	pk, ok := table.Column(table.PrimaryKey[0])
	if !ok {
		return "", errors.Errorf("primary key %s is not a column of %s", table.PrimaryKey[0], table.Name)
	}
	typ := pk.Type
	if typ.Name == "Nullable" {
		typ = *typ.Inner
	}
	return typ.RustType(), nil
}

// Skeleton is the annotated empty module the generator later fills.
func Skeleton(stem Stem) string {
	return "use schema::" + stem.Plural() + ";\n" +
		`#[sourcegen::sourcegen(generator = "` + CrudGeneratorName + `", model = "` + stem.Camel() + `")]` + "\n" +
		"mod " + stem.Module() + " {}"
}
