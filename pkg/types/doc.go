// Package types defines the catalog entity types, the persistence backend
// contract, and the standard errors shared by every catalog component.
//
// The four collections are data types, datasets, categories and the
// data type to dataset join (links). Components never mutate collections
// directly; they go through a Backend and observe the result through
// snapshots delivered by Subscriber.
package types
