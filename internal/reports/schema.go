package reports

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/analysis.json
var analysisSchemaJSON []byte

var analysisSchema = compileSchema("analysis.json", analysisSchemaJSON)

func compileSchema(name string, src []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// validateAnalysis checks raw against the embedded analysis schema.
func validateAnalysis(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: analysis is not valid JSON", ErrValidation)
	}
	if err := analysisSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
