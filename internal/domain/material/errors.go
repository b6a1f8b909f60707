package material

import "errors"

var (
	ErrMaterialNotFound = errors.New("training material not found")
	ErrNoFile           = errors.New("material has no stored file")
	ErrInvalidType      = errors.New("invalid material type")
	ErrInvalidCategory  = errors.New("invalid material category")
	ErrEmptyBatch       = errors.New("no files in upload batch")
)
