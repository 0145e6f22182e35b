package scaffold

// Kind classifies why a run failed.
type Kind int

const (
	ArgError Kind = iota
	IoError
	MigrationError
	IntrospectionError
	ParseError
	CodegenError
)

var kindNames = [...]string{
	ArgError:           "ArgError",
	IoError:            "IoError",
	MigrationError:     "MigrationError",
	IntrospectionError: "IntrospectionError",
	ParseError:         "ParseError",
	CodegenError:       "CodegenError",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownError"
}

// State is the last pipeline stage a run completed.
type State int

const (
	Init State = iota
	Extracted
	Configured
	Migrated
	Introspected
	ModelsWritten
	SourcesRewritten
	HandlersGenerated
)

var stateNames = [...]string{
	Init:              "INIT",
	Extracted:         "EXTRACTED",
	Configured:        "CONFIGURED",
	Migrated:          "MIGRATED",
	Introspected:      "INTROSPECTED",
	ModelsWritten:     "MODELS_WRITTEN",
	SourcesRewritten:  "SOURCES_REWRITTEN",
	HandlersGenerated: "HANDLERS_GENERATED",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Error is returned by Run. Step names the pipeline step that failed.
type Error struct {
	Kind  Kind
	State State
	Step  string
	Err   error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return e.Err.Error()
	}
	return e.Step + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause walk past the wrapper.
func (e *Error) Cause() error { return e.Err }
