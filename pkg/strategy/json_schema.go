package strategy

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
)

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// ParameterSchema returns the JSON schema of the named strategy's parameter mapping.
// Every default parameter becomes a required positive number carrying its default value.
func ParameterSchema(name string) (string, error) {
	defaults, err := strategy.Defaults(name)
	if err != nil {
		return "", err
	}

	properties := jsonschema.NewProperties()

	for _, key := range defaults.Keys() {
		properties.Set(key, &jsonschema.Schema{
			Type:             "number",
			ExclusiveMinimum: json.Number("0"),
			Default:          defaults.Float(key),
		})
	}

	schema := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       name,
		Description: "Parameters of the " + name + " strategy",
		Type:        "object",
		Properties:  properties,
		Required:    defaults.Keys(),
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
