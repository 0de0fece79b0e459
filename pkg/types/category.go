package types

// The placeholder category. It is synthesized in every materialized
// category list that lacks it and is never written to storage.
const (
	UncategorizedID          = "uncategorized"
	UncategorizedName        = "Uncategorized"
	UncategorizedDescription = "Data types that have not been assigned a category."
)

// Category groups data types. Name is unique and is the join key used by
// DataType.Category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// Uncategorized returns the placeholder category.
func Uncategorized() Category {
	return Category{
		ID:          UncategorizedID,
		Name:        UncategorizedName,
		Description: UncategorizedDescription,
	}
}

// IsPlaceholder reports whether c is the placeholder, either by its fixed id
// or by its reserved name.
func (c Category) IsPlaceholder() bool {
	return c.ID == UncategorizedID || c.Name == UncategorizedName
}
