package parsers

import (
	"errors"
	"io"

	"github.com/paulcha3/group4-BDM-case/src/models"
)

// Parser errors.
var (
	ErrMissingColumns    = errors.New("required columns missing")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Parser reads a product table into a dataset.
type Parser interface {
	Parse(file io.Reader) (models.Dataset, error)
}
