package types

// Collection names. They double as the array names of the JSON export.
const (
	CollectionDataTypes  = "dataTypes"
	CollectionDatasets   = "datasets"
	CollectionCategories = "categories"
	CollectionLinks      = "dataTypeDatasets"
)

// CollectionNames lists every collection for enumeration.
var CollectionNames = []string{
	CollectionDataTypes,
	CollectionDatasets,
	CollectionCategories,
	CollectionLinks,
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	for _, c := range CollectionNames {
		if c == name {
			return true
		}
	}
	return false
}
