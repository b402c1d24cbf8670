package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorNotConfigured   = "TOKENS_NOT_CONFIGURED"
	ErrorUnknownType     = "TOKENS_UNKNOWN_TYPE"
	ErrorUnknownBehavior = "TOKENS_UNKNOWN_BEHAVIOR"
	ErrorUnknownEntity   = "TOKENS_UNKNOWN_ENTITY"
	ErrorInvalidArgument = "TOKENS_INVALID_ARGUMENT"
	ErrorInternal        = "TOKENS_INTERNAL_ERROR"
)

func notConfigured(message string) *goerrors.Error {
	return newTokensError("core: "+message, goerrors.CategoryInternal, ErrorNotConfigured)
}

func unknownType(name string) *goerrors.Error {
	err := newTokensError(fmt.Sprintf("core: unknown token type %q", name), goerrors.CategoryBadInput, ErrorUnknownType)
	err.WithMetadata(map[string]any{"type": name})
	return err
}

func unknownBehavior(name string) *goerrors.Error {
	err := newTokensError(fmt.Sprintf("core: unknown token behavior %q", name), goerrors.CategoryBadInput, ErrorUnknownBehavior)
	err.WithMetadata(map[string]any{"behavior": name})
	return err
}

// NewUnknownEntityError is returned by stores that cannot resolve an entity
// name to a storage location.
func NewUnknownEntityError(name string) error {
	err := newTokensError(fmt.Sprintf("core: unknown entity %q", name), goerrors.CategoryNotFound, ErrorUnknownEntity)
	err.WithMetadata(map[string]any{"entity_name": name})
	return err
}

// NewInvalidArgumentError reports a rejected argument, such as an empty
// delete filter.
func NewInvalidArgumentError(format string, args ...any) error {
	return newTokensError("core: "+fmt.Sprintf(format, args...), goerrors.CategoryBadInput, ErrorInvalidArgument)
}

func IsNotConfigured(err error) bool   { return hasTextCode(err, ErrorNotConfigured) }
func IsUnknownType(err error) bool     { return hasTextCode(err, ErrorUnknownType) }
func IsUnknownBehavior(err error) bool { return hasTextCode(err, ErrorUnknownBehavior) }
func IsUnknownEntity(err error) bool   { return hasTextCode(err, ErrorUnknownEntity) }
func IsInvalidArgument(err error) bool { return hasTextCode(err, ErrorInvalidArgument) }

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

// MapError converts err into a go-errors envelope with an HTTP status and a
// text code. Storage errors map through the go-errors default mappers.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func configurationError(err error) error {
	if err == nil || IsNotConfigured(err) {
		return err
	}
	return notConfigured(strings.TrimPrefix(err.Error(), "core: "))
}

func newTokensError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithCode(tokensHTTPStatus(category)).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = tokensHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorInvalidArgument
	case goerrors.CategoryNotFound:
		return ErrorUnknownEntity
	default:
		return ErrorInternal
	}
}

func tokensHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
