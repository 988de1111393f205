package catalogs

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed schemas/block_model.schema.json
	modelSchemaJSON []byte
	//go:embed schemas/blocks.schema.json
	blocksSchemaJSON []byte

	modelSchema  = mustCompile("block_model.schema.json", modelSchemaJSON)
	blocksSchema = mustCompile("blocks.schema.json", blocksSchemaJSON)
)

func mustCompile(name string, raw []byte) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

func validateJSON(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
