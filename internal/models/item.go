package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// InventoryItem is a single perishable/consumable record owned by one user.
// A nil ExpiryDate means the item has no expiry concern.
type InventoryItem struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Quantity   int        `json:"quantity"`
	DailyUsage float64    `json:"daily_usage"`
	ExpiryDate *time.Time `json:"expiry_date"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Stats is derived on demand from the live item set and never persisted.
type Stats struct {
	TotalItems       int            `json:"totalItems"`
	LowStockItems    int            `json:"lowStockItems"`
	ExpiringSoon     int            `json:"expiringSoon"`
	CategoryCounts   map[string]int `json:"categoryCounts"`
	PredictedSavings int            `json:"predictedSavings"`
	CarbonReduced    float64        `json:"carbonReduced"`
}

// OptionalDate distinguishes a field that was absent from the JSON body
// from one that was explicitly null. Partial updates need the difference:
// absent leaves the stored date alone, null clears it.
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

func (d *OptionalDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Value = nil
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Value = &t
	return nil
}

// ParseDate accepts the two formats clients send: full RFC3339 timestamps
// and plain calendar dates.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// CreateItemRequest is the JSON body for POST /inventory/items.
// Quantity and DailyUsage are pointers so that a missing field can be told
// apart from an explicit zero.
type CreateItemRequest struct {
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Quantity   *int         `json:"quantity"`
	DailyUsage *float64     `json:"daily_usage"`
	ExpiryDate OptionalDate `json:"expiry_date"`
}

// UpdateItemRequest is the JSON body for PUT /inventory/items/{id}.
// Only non-nil fields are applied.
type UpdateItemRequest struct {
	Name       *string      `json:"name"`
	Category   *string      `json:"category"`
	Quantity   *int         `json:"quantity"`
	DailyUsage *float64     `json:"daily_usage"`
	ExpiryDate OptionalDate `json:"expiry_date"`
}
