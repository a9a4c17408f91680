package models

// RecordPage is one page of an ordered, filtered read.
type RecordPage struct {
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	TotalPages   int              `json:"total_pages"`
	TotalRecords int              `json:"total_records"`
	Records      []CampaignRecord `json:"records"`
}

// HasNext reports whether a page follows this one.
func (p RecordPage) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a page precedes this one.
func (p RecordPage) HasPrev() bool {
	return p.Page > 1
}
