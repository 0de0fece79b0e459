// Package store holds the in-memory view of the catalog. Collections are
// replaced wholesale by Apply; every query is a synchronous read of the
// current snapshots and never touches the backend.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/datacatalog/internal/categories"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

// Store is the live, read-only view of the four collections plus the
// bidirectional link index derived from them.
type Store struct {
	mu sync.RWMutex

	dataTypes  []types.DataType
	datasets   []types.Dataset
	categories []types.Category
	links      []types.Link

	dataTypePos map[string]int
	datasetPos  map[string]int

	// link index: endpoint id to the set of linked ids on the other side
	byDataType map[string]map[string]struct{}
	byDataset  map[string]map[string]struct{}

	versions map[string]uint64
	applied  map[string]uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		dataTypePos: map[string]int{},
		datasetPos:  map[string]int{},
		byDataType:  map[string]map[string]struct{}{},
		byDataset:   map[string]map[string]struct{}{},
		versions:    map[string]uint64{},
		applied:     map[string]uint64{},
	}
}

// Apply replaces one collection with the records of snap. Snapshots older
// than the last applied version for the collection are ignored.
func (s *Store) Apply(snap types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied[snap.Collection] > 0 && snap.Version < s.versions[snap.Collection] {
		return nil
	}

	switch snap.Collection {
	case types.CollectionDataTypes:
		next := make([]types.DataType, 0, len(snap.Records))
		for _, rec := range snap.Records {
			dt, ok := rec.(*types.DataType)
			if !ok {
				return recordError(snap.Collection, rec)
			}
			next = append(next, *dt)
		}
		s.dataTypes = next
		s.dataTypePos = make(map[string]int, len(next))
		for i, dt := range next {
			s.dataTypePos[dt.ID] = i
		}
	case types.CollectionDatasets:
		next := make([]types.Dataset, 0, len(snap.Records))
		for _, rec := range snap.Records {
			ds, ok := rec.(*types.Dataset)
			if !ok {
				return recordError(snap.Collection, rec)
			}
			next = append(next, *ds)
		}
		s.datasets = next
		s.datasetPos = make(map[string]int, len(next))
		for i, ds := range next {
			s.datasetPos[ds.ID] = i
		}
	case types.CollectionCategories:
		next := make([]types.Category, 0, len(snap.Records))
		for _, rec := range snap.Records {
			c, ok := rec.(*types.Category)
			if !ok {
				return recordError(snap.Collection, rec)
			}
			next = append(next, *c)
		}
		s.categories = next
	case types.CollectionLinks:
		next := make([]types.Link, 0, len(snap.Records))
		for _, rec := range snap.Records {
			l, ok := rec.(*types.Link)
			if !ok {
				return recordError(snap.Collection, rec)
			}
			next = append(next, *l)
		}
		s.links = next
		s.rebuildIndex()
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownCollection, snap.Collection)
	}

	s.versions[snap.Collection] = snap.Version
	s.applied[snap.Collection]++
	return nil
}

func recordError(collection string, rec any) error {
	return fmt.Errorf("%w: %s snapshot holds %T", types.ErrInvalidData, collection, rec)
}

func (s *Store) rebuildIndex() {
	s.byDataType = make(map[string]map[string]struct{})
	s.byDataset = make(map[string]map[string]struct{})
	for _, l := range s.links {
		addEdge(s.byDataType, l.DataTypeID, l.DatasetID)
		addEdge(s.byDataset, l.DatasetID, l.DataTypeID)
	}
}

func addEdge(index map[string]map[string]struct{}, from, to string) {
	set, ok := index[from]
	if !ok {
		set = make(map[string]struct{})
		index[from] = set
	}
	set[to] = struct{}{}
}

// Version returns the backend version of the last applied snapshot of
// collection.
func (s *Store) Version(collection string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[collection]
}

// Applied returns how many snapshots of collection have been applied.
func (s *Store) Applied(collection string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied[collection]
}

// DataTypes returns a copy of the data type collection.
func (s *Store) DataTypes() []types.DataType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.DataType(nil), s.dataTypes...)
}

// Datasets returns a copy of the dataset collection.
func (s *Store) Datasets() []types.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Dataset(nil), s.datasets...)
}

// Categories returns the materialized category list: the stored categories
// followed by the Uncategorized placeholder when storage lacks it.
func (s *Store) Categories() []types.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categories.Materialize(s.categories)
}

// Links returns a copy of the link collection.
func (s *Store) Links() []types.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Link(nil), s.links...)
}

// DataTypeByID looks up a data type.
func (s *Store) DataTypeByID(id string) (types.DataType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.dataTypePos[id]
	if !ok {
		return types.DataType{}, false
	}
	return s.dataTypes[i], true
}

// DatasetByID looks up a dataset.
func (s *Store) DatasetByID(id string) (types.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.datasetPos[id]
	if !ok {
		return types.Dataset{}, false
	}
	return s.datasets[i], true
}

// CategoryByName looks up a category in the materialized list.
func (s *Store) CategoryByName(name string) (types.Category, bool) {
	for _, c := range s.Categories() {
		if c.Name == name {
			return c, true
		}
	}
	return types.Category{}, false
}

// DatasetsForDataType returns the datasets linked to a data type in
// dataset collection order. Either endpoint missing from the current
// snapshots yields no result for that link.
func (s *Store) DatasetsForDataType(dataTypeID string) []types.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := s.linkedDatasets(dataTypeID)
	out := make([]types.Dataset, 0, len(pos))
	for _, i := range pos {
		out = append(out, s.datasets[i])
	}
	return out
}

// DataTypesForDataset returns the data types linked to a dataset in data
// type collection order.
func (s *Store) DataTypesForDataset(datasetID string) []types.DataType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := s.linkedDataTypes(datasetID)
	out := make([]types.DataType, 0, len(pos))
	for _, i := range pos {
		out = append(out, s.dataTypes[i])
	}
	return out
}

// DataTypeCountForDataset counts the data types linked to a dataset.
func (s *Store) DataTypeCountForDataset(datasetID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.linkedDataTypes(datasetID))
}

// LinkCount is DataTypeCountForDataset.
func (s *Store) LinkCount(datasetID string) int {
	return s.DataTypeCountForDataset(datasetID)
}

// DatasetCountForDataType counts the datasets linked to a data type.
func (s *Store) DatasetCountForDataType(dataTypeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.linkedDatasets(dataTypeID))
}

// linkedDatasets returns dataset positions linked to dataTypeID. The links
// snapshot may lag the data types snapshot, so a data type that is no
// longer present has no links.
func (s *Store) linkedDatasets(dataTypeID string) []int {
	if _, ok := s.dataTypePos[dataTypeID]; !ok {
		return nil
	}
	return positions(s.byDataType[dataTypeID], s.datasetPos)
}

func (s *Store) linkedDataTypes(datasetID string) []int {
	if _, ok := s.datasetPos[datasetID]; !ok {
		return nil
	}
	return positions(s.byDataset[datasetID], s.dataTypePos)
}

// DataTypesInCategory returns the data types whose category is name, in
// collection order.
func (s *Store) DataTypesInCategory(name string) []types.DataType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.DataType
	for _, dt := range s.dataTypes {
		if dt.Category == name {
			out = append(out, dt)
		}
	}
	return out
}

// positions maps linked ids to their collection positions, dropping ids
// absent from the collection, sorted ascending.
func positions(linked map[string]struct{}, pos map[string]int) []int {
	out := make([]int, 0, len(linked))
	for id := range linked {
		if i, ok := pos[id]; ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
