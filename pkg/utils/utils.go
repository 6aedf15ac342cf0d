package utils

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// SchemaOption customizes the reflector used by GetSchemaFromConfig.
type SchemaOption func(r *jsonschema.Reflector)

// WithMapper overrides the schema of types the reflector cannot describe on
// its own, such as optional values.
func WithMapper(mapper func(reflect.Type) *jsonschema.Schema) SchemaOption {
	return func(r *jsonschema.Reflector) {
		r.Mapper = mapper
	}
}

// WithFieldNameTag reads property names from the given struct tag instead of json.
func WithFieldNameTag(tag string) SchemaOption {
	return func(r *jsonschema.Reflector) {
		r.FieldNameTag = tag
	}
}

// GetSchemaFromConfig reflects config into an inline JSON schema.
func GetSchemaFromConfig(config any, options ...SchemaOption) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true

	for _, option := range options {
		option(r)
	}

	schema := r.Reflect(config)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
