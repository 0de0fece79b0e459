package types

import "errors"

// Validation errors. Returned before any write; storage is unchanged.
var (
	ErrInvalidID         = errors.New("invalid entity ID")
	ErrInvalidData       = errors.New("invalid entity data")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidCategory   = errors.New("category does not exist")
	ErrInvalidField      = errors.New("invalid field")
	ErrInvalidSide       = errors.New("invalid link side")
	ErrInvalidPayload    = errors.New("invalid import payload")
	ErrDuplicateName     = errors.New("name already exists")
	ErrProtectedCategory = errors.New("the Uncategorized category is protected")
	ErrCategoryInUse     = errors.New("category is still referenced by data types")
	ErrNoSession         = errors.New("no session in context")
)

// Referential errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrDanglingLink = errors.New("link target does not exist")
	ErrConflict     = errors.New("record conflicts with an existing record")
)

// Operation errors.
var (
	ErrImportInProgress = errors.New("an import is already in progress")
)
