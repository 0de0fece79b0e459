package types

// Link is one edge of the many-to-many relation between data types and
// datasets. The (DataTypeID, DatasetID) pair is unique.
type Link struct {
	ID         string `json:"id"`
	DataTypeID string `json:"data_type_id" validate:"required"`
	DatasetID  string `json:"dataset_id" validate:"required"`
}

// Side names the endpoint whose link set is being replaced.
type Side string

// Link sides.
const (
	SideDataType Side = "dataType"
	SideDataset  Side = "dataset"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideDataType || s == SideDataset
}

// Column returns the link column holding this side's id.
func (s Side) Column() string {
	if s == SideDataset {
		return "dataset_id"
	}
	return "data_type_id"
}

// Opposite returns the other side of the relation.
func (s Side) Opposite() Side {
	if s == SideDataset {
		return SideDataType
	}
	return SideDataset
}

// Collection returns the collection that holds entities of this side.
func (s Side) Collection() string {
	if s == SideDataset {
		return CollectionDatasets
	}
	return CollectionDataTypes
}

// NewLink builds a link for itemID on side s pointing at otherID.
func NewLink(s Side, itemID, otherID string) *Link {
	if s == SideDataset {
		return &Link{DataTypeID: otherID, DatasetID: itemID}
	}
	return &Link{DataTypeID: itemID, DatasetID: otherID}
}
