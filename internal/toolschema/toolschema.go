// Package toolschema generates a JSON Schema document describing the
// parameter records of the 8 tool operations that take a parameter struct;
// tools whose parameters are plain strings have no definition.
package toolschema

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/nota-kb/docserver/internal/tools"
)

// Generate reflects each tool parameter struct listed below into a named definition
// within a single combined JSON Schema document.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "docserver tool parameters",
		Definitions: jsonschema.Definitions{},
	}

	params := []struct {
		name string
		typ  reflect.Type
	}{
		{"create_document", reflect.TypeOf(tools.CreateDocumentParams{})},
		{"section", reflect.TypeOf(tools.SectionOp{})},
		{"task", reflect.TypeOf(tools.TaskOp{})},
		{"start_task", reflect.TypeOf(tools.StartTaskParams{})},
		{"complete_task", reflect.TypeOf(tools.CompleteTaskParams{})},
		{"edit_document", reflect.TypeOf(tools.EditDocumentParams{})},
		{"move", reflect.TypeOf(tools.MoveSectionParams{})},
		{"search_documents", reflect.TypeOf(tools.SearchParams{})},
	}

	for _, p := range params {
		def := r.ReflectFromType(p.typ)
		def.Version = ""
		def.ID = ""
		root.Definitions[p.name] = def
	}

	return root
}
