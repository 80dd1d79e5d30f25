package imports

import (
	"campaign-import/internal/catalog"
	"campaign-import/internal/records"
	"campaign-import/internal/report"
)

// ValidateRowsRequest carries sheets as JSON instead of a workbook.
type ValidateRowsRequest struct {
	Sheets []records.RawSheet `json:"sheets" binding:"required"`
	Types  []string           `json:"types"`
}

// DeployResponse is returned by the deploy endpoint.
type DeployResponse struct {
	BatchID string              `json:"batchId"`
	Result  report.DeployResult `json:"result"`
}

// ProductTypeResponse describes one registry entry.
type ProductTypeResponse struct {
	Type          string   `json:"type"`
	DisplayName   string   `json:"displayName"`
	Kind          string   `json:"kind"`
	Prefix        string   `json:"prefix"`
	StorageKey    string   `json:"storageKey"`
	Subtype       string   `json:"subtype,omitempty"`
	Aliases       []string `json:"aliases"`
	Columns       []string `json:"columns"`
	HasStatusRule bool     `json:"hasStatusRule"`
}

func toProductTypeResponse(s catalog.Spec) ProductTypeResponse {
	cols := make([]string, len(s.Schema.Columns))
	for i, c := range s.Schema.Columns {
		cols[i] = string(c)
	}
	return ProductTypeResponse{
		Type:          string(s.Type),
		DisplayName:   s.DisplayName,
		Kind:          string(s.Kind),
		Prefix:        s.Binding.BusinessKeyPrefix,
		StorageKey:    s.Binding.StorageKey,
		Subtype:       s.Binding.Subtype,
		Aliases:       s.Aliases,
		Columns:       cols,
		HasStatusRule: s.StatusRule != nil,
	}
}
