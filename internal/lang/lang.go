package lang

// Language represents a supported source language.
type Language string

const (
	Go         Language = "go"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Python     Language = "python"
	SQL        Language = "sql"
)

// AllLanguages returns all registered languages.
func AllLanguages() []Language {
	return []Language{Go, JavaScript, TypeScript, TSX, Python, SQL}
}

// LanguageSpec defines the tree-sitter node kinds the analyzer extracts
// for a language. SQL is registered here for routing; its extraction goes
// through the dedicated SQL element extractor rather than the generic walker.
type LanguageSpec struct {
	Language          Language
	FileExtensions    []string
	FunctionNodeTypes []string
	ClassNodeTypes    []string
	ModuleNodeTypes   []string
	// StatementNodeTypes lists top-level declaration kinds that are neither
	// functions nor classes (e.g. SQL create statements).
	StatementNodeTypes []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
