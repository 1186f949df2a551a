package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

var (
	stockCodePattern = regexp.MustCompile(`^(sh|sz)\.\d{6}$`)
	bareCodePattern  = regexp.MustCompile(`^\d{6}$`)
)

// NormalizeSymbol adds the exchange prefix to a bare six digit A-share code: sh. for codes
// starting with 6, sz. otherwise. Prefixed codes are lower-cased, anything else is returned trimmed.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)

	switch {
	case bareCodePattern.MatchString(symbol):
		if strings.HasPrefix(symbol, "6") {
			return "sh." + symbol
		}

		return "sz." + symbol
	case stockCodePattern.MatchString(strings.ToLower(symbol)):
		return strings.ToLower(symbol)
	default:
		return symbol
	}
}

// ValidateStockCode reports whether code has the sh.600000 / sz.000001 form.
func ValidateStockCode(code string) bool {
	return stockCodePattern.MatchString(code)
}

// ValidateDate reports whether date is a real calendar day written as YYYY-MM-DD.
func ValidateDate(date string) bool {
	_, err := time.Parse(time.DateOnly, date)

	return err == nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid date %q, expected YYYY-MM-DD", date)
	}

	return t, nil
}

// ParseStockCode normalizes symbol and fails with ErrCodeInvalidSymbol when the result is not a valid stock code.
func ParseStockCode(symbol string) (string, error) {
	code := NormalizeSymbol(symbol)
	if !ValidateStockCode(code) {
		return "", errors.Newf(errors.ErrCodeInvalidSymbol, "invalid stock code %q", symbol)
	}

	return code, nil
}
