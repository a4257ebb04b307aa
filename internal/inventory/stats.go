package inventory

import (
	"math"
	"time"

	"github.com/happyshelf/backend/internal/models"
)

const (
	// An item is low stock when its supply covers fewer than this many days.
	lowStockDays = 3
	// An item is expiring soon when its expiry falls within this many days.
	expiringSoonDays = 7
	// Sentinel for items with no daily usage: supply lasts "forever".
	noUsageDaysLeft = 999
)

// MetricsConfig holds the heuristic constants behind the savings and carbon
// estimates. They are rough placeholders, kept configurable on purpose.
type MetricsConfig struct {
	SavingsPerItem  float64 // USD per well-managed item
	CarbonPerItemKg float64 // kg CO2 per well-managed item
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{SavingsPerItem: 5, CarbonPerItemKg: 0.5}
}

// daysLeft is how many days the current quantity lasts at the item's usage
// rate.
func daysLeft(it models.InventoryItem) float64 {
	if it.DailyUsage > 0 {
		return float64(it.Quantity) / it.DailyUsage
	}
	return noUsageDaysLeft
}

// daysToExpiry is the whole number of days until the item expires, rounded
// up. ok is false when the item has no expiry date.
func daysToExpiry(it models.InventoryItem, now time.Time) (days int, ok bool) {
	if it.ExpiryDate == nil {
		return 0, false
	}
	return int(math.Ceil(it.ExpiryDate.Sub(now).Hours() / 24)), true
}

// ComputeStats derives the dashboard metrics from the live item set. It is
// a pure function of the items and the clock; nothing is persisted.
//
// A "well-managed" item is neither low stock nor expiring soon (items
// without an expiry date only need to pass the stock check). Already
// expired items are never well-managed.
func ComputeStats(items []models.InventoryItem, now time.Time, cfg MetricsConfig) models.Stats {
	stats := models.Stats{
		TotalItems:     len(items),
		CategoryCounts: make(map[string]int),
	}

	wellManaged := 0
	for _, it := range items {
		stats.CategoryCounts[it.Category]++

		lowStock := daysLeft(it) < lowStockDays
		if lowStock {
			stats.LowStockItems++
		}

		expiryOK := true
		if days, ok := daysToExpiry(it, now); ok {
			if days >= 0 && days < expiringSoonDays {
				stats.ExpiringSoon++
			}
			expiryOK = days >= expiringSoonDays
		}

		if expiryOK && !lowStock {
			wellManaged++
		}
	}

	if stats.TotalItems > 0 {
		stats.PredictedSavings = int(math.Round(float64(wellManaged) * cfg.SavingsPerItem))
		stats.CarbonReduced = math.Round(float64(wellManaged)*cfg.CarbonPerItemKg*100) / 100
	}
	return stats
}
