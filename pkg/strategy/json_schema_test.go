package strategy

import (
	"encoding/json"
	"testing"

	internal "github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	schema, err := ToJSONSchema(internal.Config{})
	suite.NoError(err)
	suite.Contains(schema, "strategy")
	suite.Contains(schema, "parameters")
}

func (suite *JsonSchemaTestSuite) TestParameterSchema() {
	schema, err := ParameterSchema(internal.MACrossoverName)
	suite.Require().NoError(err)

	var decoded struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type    string  `json:"type"`
			Default float64 `json:"default"`
		} `json:"properties"`
		Required []string `json:"required"`
	}

	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))
	suite.Equal("object", decoded.Type)
	suite.Equal([]string{"long_window", "short_window"}, decoded.Required)
	suite.Equal("number", decoded.Properties["short_window"].Type)
	suite.Equal(5.0, decoded.Properties["short_window"].Default)
	suite.Equal(20.0, decoded.Properties["long_window"].Default)
}

func (suite *JsonSchemaTestSuite) TestParameterSchemaUnknownStrategy() {
	_, err := ParameterSchema("nope")
	suite.Equal(errors.ErrCodeUnsupportedStrategy, errors.GetCode(err))
}
