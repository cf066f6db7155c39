package models

type Overview struct {
	Total                int            `json:"total"`
	ByStatus             map[Status]int `json:"byStatus"`
	Pending              int            `json:"pending"`
	Resolved             int            `json:"resolved"`
	// ResolutionRate is Resolved as a percentage of Total, 0 when there are no issues.
	ResolutionRate       float64        `json:"resolutionRate"`
	AvgResolutionMinutes float64        `json:"avgResolutionMinutes"`
	AvgResponseMinutes   float64        `json:"avgResponseMinutes"`
	ByCategory           map[string]int `json:"byCategory"`
	ByHostel             map[string]int `json:"byHostel"`
}
