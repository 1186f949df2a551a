package utils

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestNormalizeSymbol() {
	tests := []struct {
		input    string
		expected string
	}{
		{"600000", "sh.600000"},
		{"601318", "sh.601318"},
		{"000001", "sz.000001"},
		{"300750", "sz.300750"},
		{" 600519 ", "sh.600519"},
		{"SH.600000", "sh.600000"},
		{"sz.000001", "sz.000001"},
		{"AAPL", "AAPL"},
		{"60000", "60000"},
	}

	for _, tc := range tests {
		suite.Equal(tc.expected, NormalizeSymbol(tc.input), tc.input)
	}
}

func (suite *UtilsTestSuite) TestValidateStockCode() {
	suite.True(ValidateStockCode("sh.600000"))
	suite.True(ValidateStockCode("sz.000001"))
	suite.False(ValidateStockCode("600000"))
	suite.False(ValidateStockCode("bj.430047"))
	suite.False(ValidateStockCode("sh.60000"))
	suite.False(ValidateStockCode("sh.6000000"))
	suite.False(ValidateStockCode(""))
}

func (suite *UtilsTestSuite) TestValidateDate() {
	suite.True(ValidateDate("2024-02-29"))
	suite.False(ValidateDate("2023-02-29"))
	suite.False(ValidateDate("2024/01/01"))
	suite.False(ValidateDate("20240101"))
	suite.False(ValidateDate(""))
}

func (suite *UtilsTestSuite) TestParseDate() {
	t, err := ParseDate("2024-01-02")
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), t)

	_, err = ParseDate("2024-13-01")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDate))
}

func (suite *UtilsTestSuite) TestParseStockCode() {
	code, err := ParseStockCode("000001")
	suite.Require().NoError(err)
	suite.Equal("sz.000001", code)

	_, err = ParseStockCode("AAPL")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSymbol))
}
