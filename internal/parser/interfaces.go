package parser

import (
	"io"

	"github.com/Belphemur/BangumiBridge/internal/models"
)

// Parser decodes a response body holding a list of results.
type Parser[T any] interface {
	Parse(body io.Reader) ([]T, error)
}

// SingleResultParser decodes a response body holding exactly one result.
type SingleResultParser[T any] interface {
	ParseOne(body io.Reader) (T, error)
}

// PaginatedParser decodes one page of a paginated listing.
// Page and PageSize of the result are left for the caller to fill in.
type PaginatedParser[T any] interface {
	ParsePage(body io.Reader) (models.Page[T], error)
}
