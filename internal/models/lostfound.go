package models

import "time"

// ItemStatus is where a lost-and-found post stands. Claimed is final.
type ItemStatus string

const (
	ItemLost    ItemStatus = "lost"
	ItemFound   ItemStatus = "found"
	ItemClaimed ItemStatus = "claimed"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemLost, ItemFound, ItemClaimed:
		return true
	}
	return false
}

type LostFoundItem struct {
	ID           string     `json:"id"`
	ItemName     string     `json:"itemName"`
	Description  string     `json:"description,omitempty"`
	Location     string     `json:"location,omitempty"`
	Hostel       string     `json:"hostel,omitempty"`
	Block        string     `json:"block,omitempty"`
	Status       ItemStatus `json:"status"`
	ReportedBy   string     `json:"reportedBy"`
	ReporterName string     `json:"reporterName,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	ClaimedBy    string     `json:"claimedBy,omitempty"`
	ClaimedAt    *time.Time `json:"claimedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
