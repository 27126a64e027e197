package lang

func init() {
	Register(&LanguageSpec{
		Language:          SQL,
		FileExtensions:    []string{".sql"},
		ModuleNodeTypes:   []string{"program"},
		FunctionNodeTypes: []string{"create_function"},
		StatementNodeTypes: []string{
			"create_table",
			"create_view",
			"create_materialized_view",
			"create_procedure",
			"create_trigger",
			"create_index",
		},
	})
}
