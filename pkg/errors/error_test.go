package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeNoDataFound, "no bars for %s", "sh.600000")
	suite.Equal("no bars for sh.600000", err.Message)
	suite.Equal("[204] no bars for sh.600000", err.Error())
}

func (suite *ErrorTestSuite) TestWrapKeepsCause() {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeWriteFailed, "failed to export trades", cause)
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
	suite.Equal("[205] failed to export trades: disk full", err.Error())

	err = Wrapf(ErrCodeQueryFailed, cause, "query %s", "bars")
	suite.Equal("query bars", err.Message)
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeInvalidParameter, GetCode(New(ErrCodeInvalidParameter, "x")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))

	// outermost code wins
	inner := New(ErrCodeNoDataFound, "empty")
	outer := Wrap(ErrCodeBacktestInitFailed, "init", inner)
	suite.Equal(ErrCodeBacktestInitFailed, GetCode(outer))

	// fmt wrapping is transparent
	suite.Equal(ErrCodeNoDataFound, GetCode(fmt.Errorf("run: %w", inner)))
}

func (suite *ErrorTestSuite) TestCodeOfWrappedInsufficientData() {
	inner := NewInsufficientDataErrorf(14, 3, "", "rsi needs %d bars", 14)
	suite.Equal(ErrCodeInsufficientData, GetCode(fmt.Errorf("calc: %w", inner)))

	// a coded wrapper hides the inner code
	suite.Equal(ErrCodeIndicatorCalculation, GetCode(Wrap(ErrCodeIndicatorCalculation, "calc", inner)))
	suite.True(IsInsufficientDataError(Wrap(ErrCodeIndicatorCalculation, "calc", inner)))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(20, 5, "sz.000001", "need %d bars, got %d", 20, 5)
	suite.Equal("need 20 bars, got 5", err.Error())
	suite.True(IsInsufficientDataError(err))
	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", err)))
	suite.False(IsInsufficientDataError(errors.New("plain")))
	suite.False(IsInsufficientDataError(nil))
	suite.Equal(ErrCodeInsufficientData, GetCode(err))

	suite.Equal(20, err.Required)
	suite.Equal(5, err.Actual)
	suite.Equal("sz.000001", err.Symbol)
}

func (suite *ErrorTestSuite) TestTaxonomyHelpers() {
	suite.True(IsParameterInvalid(New(ErrCodeInvalidParameter, "short >= long")))
	suite.False(IsParameterInvalid(New(ErrCodeNoDataFound, "empty")))

	suite.True(IsNoData(New(ErrCodeNoDataFound, "empty")))
	suite.True(IsNoData(New(ErrCodeDataSourceUnavailable, "offline")))
	suite.False(IsNoData(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(106), ErrCodeInsufficientData)
	suite.Equal(ErrorCode(204), ErrCodeNoDataFound)
	suite.Equal(ErrorCode(300), ErrCodeIndicatorNotFound)
	suite.Equal(ErrorCode(403), ErrCodeUnsupportedStrategy)
	suite.Equal(ErrorCode(500), ErrCodeRiskConfigError)
	suite.Equal(ErrorCode(610), ErrCodeOptimizationFailed)
	suite.Equal(ErrorCode(700), ErrCodeMarketDataFetchFailed)
}
