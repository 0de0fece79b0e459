package types

import "time"

// Priority values for a DataType.
const (
	PriorityUnassigned = "unassigned"
	PriorityLow        = "low"
	PriorityBeneficial = "beneficial"
	PriorityEssential  = "essential"
)

// Completion status values for a DataType.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
)

var validPriorities = map[string]bool{
	PriorityUnassigned: true,
	PriorityLow:        true,
	PriorityBeneficial: true,
	PriorityEssential:  true,
}

var validStatuses = map[string]bool{
	StatusNotStarted: true,
	StatusInProgress: true,
	StatusComplete:   true,
}

// IsValidPriority reports whether p is a recognized priority.
func IsValidPriority(p string) bool {
	return validPriorities[p]
}

// IsValidStatus reports whether s is a recognized completion status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// DataType is an abstract category of data the project needs.
// Category holds the category name, not its id.
type DataType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Category    string    `json:"category" validate:"max=100"`
	Priority    string    `json:"priority" validate:"priority"`
	Status      string    `json:"status" validate:"status"`
	Format      string    `json:"format" validate:"max=200"`
	Notes       string    `json:"notes" validate:"max=10000"`
	Standards   string    `json:"standards" validate:"max=2000"`
	Indicators  string    `json:"indicators" validate:"max=2000"`
	CreatedAt   time.Time `json:"created_at"`
}

// ApplyDefaults fills the enum fields and category left empty by callers.
func (d *DataType) ApplyDefaults() {
	if d.Priority == "" {
		d.Priority = PriorityUnassigned
	}
	if d.Status == "" {
		d.Status = StatusNotStarted
	}
	if d.Category == "" {
		d.Category = UncategorizedName
	}
}

// Fields returns the mutable columns of the data type for a partial update.
// ID and CreatedAt are immutable and never included.
func (d *DataType) Fields() map[string]any {
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"category":    d.Category,
		"priority":    d.Priority,
		"status":      d.Status,
		"format":      d.Format,
		"notes":       d.Notes,
		"standards":   d.Standards,
		"indicators":  d.Indicators,
	}
}
