package filter

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorUnsupportedOperator = "FILTER_UNSUPPORTED_OPERATOR"
	ErrorInvalidArgument     = "FILTER_INVALID_ARGUMENT"
)

func unsupportedOperator(operator string) error {
	return goerrors.New(fmt.Sprintf("filter: unsupported operator %q", operator), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorUnsupportedOperator)
}

func invalidArgument(format string, args ...any) error {
	return goerrors.New("filter: "+fmt.Sprintf(format, args...), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorInvalidArgument)
}

// NewInvalidArgumentError lets condition consumers, such as stores that only
// know a fixed column set, reject a field with the filter error code.
func NewInvalidArgumentError(format string, args ...any) error {
	return invalidArgument(format, args...)
}

// IsUnsupportedOperator reports whether err was raised for an unknown operator token.
func IsUnsupportedOperator(err error) bool {
	return hasTextCode(err, ErrorUnsupportedOperator)
}

// IsInvalidArgument reports whether err was raised for a malformed operand or field.
func IsInvalidArgument(err error) bool {
	return hasTextCode(err, ErrorInvalidArgument)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), code)
}
