package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  any
		wantErr error
		wantMsg string
	}{
		{
			name:   "complete data type",
			entity: &DataType{Name: "Land cover", Priority: PriorityEssential, Status: StatusComplete},
		},
		{
			name:    "data type without name",
			entity:  &DataType{Priority: PriorityLow, Status: StatusNotStarted},
			wantErr: ErrInvalidName,
			wantMsg: "name is required",
		},
		{
			name:    "data type with unknown priority",
			entity:  &DataType{Name: "Rainfall", Priority: "urgent", Status: StatusNotStarted},
			wantErr: ErrInvalidData,
			wantMsg: "priority must be one of",
		},
		{
			name:    "data type with unknown status",
			entity:  &DataType{Name: "Rainfall", Priority: PriorityLow, Status: "done"},
			wantErr: ErrInvalidData,
			wantMsg: "status must be one of",
		},
		{
			name:   "dataset without url",
			entity: &Dataset{Name: "ERA5"},
		},
		{
			name:    "dataset with malformed url",
			entity:  &Dataset{Name: "ERA5", SourceURL: "not a url"},
			wantErr: ErrInvalidData,
			wantMsg: "source_url must be a valid URL",
		},
		{
			name:    "data type with oversized notes",
			entity:  &DataType{Name: "Rainfall", Priority: PriorityLow, Status: StatusNotStarted, Notes: strings.Repeat("x", 10001)},
			wantErr: ErrInvalidData,
			wantMsg: "notes must be at most 10000 characters",
		},
		{
			name:    "dataset with oversized description",
			entity:  &Dataset{Name: "ERA5", Description: strings.Repeat("x", 5001)},
			wantErr: ErrInvalidData,
			wantMsg: "description must be at most 5000 characters",
		},
		{
			name:    "category with oversized description",
			entity:  &Category{Name: "Climate", Description: strings.Repeat("x", 1001)},
			wantErr: ErrInvalidData,
		},
		{
			name:    "category without name",
			entity:  &Category{Description: "orphan"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "link without endpoints",
			entity:  &Link{ID: "l1"},
			wantErr: ErrInvalidData,
			wantMsg: "data_type_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDataTypeApplyDefaults(t *testing.T) {
	d := &DataType{Name: "Soil moisture"}
	d.ApplyDefaults()

	assert.Equal(t, PriorityUnassigned, d.Priority)
	assert.Equal(t, StatusNotStarted, d.Status)
	assert.Equal(t, UncategorizedName, d.Category)

	d = &DataType{Name: "Soil moisture", Priority: PriorityLow, Status: StatusComplete, Category: "Climate"}
	d.ApplyDefaults()
	assert.Equal(t, PriorityLow, d.Priority)
	assert.Equal(t, StatusComplete, d.Status)
	assert.Equal(t, "Climate", d.Category)
}
