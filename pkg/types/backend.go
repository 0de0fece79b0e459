package types

import (
	"context"
	"errors"
)

// Persistence is the write and query side of the backend. Every method is a
// round trip to storage; nothing here touches in-memory views.
type Persistence interface {
	// Create inserts data into collection. When the entity id is empty a new
	// UUID v7 is generated; otherwise the id is kept verbatim. Returns the id.
	Create(ctx context.Context, collection string, data any) (string, error)

	// Update applies a partial update to the record with the given id.
	// Unknown or immutable fields return ErrInvalidField.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes the record with the given id.
	// Returns ErrNotFound if no record exists with that id.
	Delete(ctx context.Context, collection, id string) error

	// QueryWhere returns the records whose field equals value, in insertion
	// order. Records are pointers to the collection's entity type.
	QueryWhere(ctx context.Context, collection, field string, value any) ([]any, error)

	// Batch applies ops in order inside one transaction. Either every op
	// commits or none does.
	Batch(ctx context.Context, ops []Op) error
}

// Subscriber delivers full-collection snapshots. onChange receives the
// current contents right after subscribing and again after every commit that
// touches the collection. Deliveries for one subscription never overlap;
// deliveries for different subscriptions are unordered.
type Subscriber interface {
	Subscribe(collection string, onChange func(Snapshot)) (unsubscribe func(), err error)
}

// Backend is a persistence backend with a lifecycle.
type Backend interface {
	Persistence
	Subscriber

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources and cancels every subscription.
	// Idempotent.
	Detach() error
}

// Snapshot is the complete contents of one collection at a commit.
// Records hold *DataType, *Dataset, *Category or *Link depending on
// Collection, in insertion order.
type Snapshot struct {
	Collection string
	Version    uint64
	Records    []any
}

// OpKind names a batch operation.
type OpKind string

// Batch operation kinds.
const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpClear  OpKind = "clear"
)

// Op is one step of an atomic batch.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       any
	Fields     map[string]any
}

// CreateOp inserts data into collection.
func CreateOp(collection string, data any) Op {
	return Op{Kind: OpCreate, Collection: collection, Data: data}
}

// UpdateOp applies fields to the record id.
func UpdateOp(collection, id string, fields map[string]any) Op {
	return Op{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields}
}

// DeleteOp removes the record id.
func DeleteOp(collection, id string) Op {
	return Op{Kind: OpDelete, Collection: collection, ID: id}
}

// ClearOp removes every record of collection.
func ClearOp(collection string) Op {
	return Op{Kind: OpClear, Collection: collection}
}

// Backend lifecycle errors.
var (
	ErrBackendDetached   = errors.New("backend is detached")
	ErrAlreadyAttached   = errors.New("backend is already attached")
	ErrUnknownCollection = errors.New("unknown collection")
)
