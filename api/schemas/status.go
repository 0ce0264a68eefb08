// api/schemas/status.go
package schemas

import "time"

// ProductStatus is the per-item record serialized into the dashboard
// snapshot. It reflects the last known verdict for the item.
type ProductStatus struct {
	Name        string    `json:"name"`
	Shop        string    `json:"shop"`
	Sizes       []string  `json:"sizes"`
	MaxPrice    float64   `json:"maxPrice"`
	Available   bool      `json:"available"`
	Price       float64   `json:"price,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"lastChecked"`
}

// WebNotification is one entry in the dashboard's notification feed.
type WebNotification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusSnapshot is the dashboard status document. Notifications are kept
// newest first, capped at MaxWebNotifications.
type StatusSnapshot struct {
	LastCheck     time.Time         `json:"lastCheck"`
	BotStatus     string            `json:"botStatus"`
	Products      []ProductStatus   `json:"products"`
	Notifications []WebNotification `json:"notifications"`
}

// MaxWebNotifications caps the dashboard notification feed.
const MaxWebNotifications = 20

// StatusFromVerdict builds the dashboard record for one item's verdict.
func StatusFromVerdict(item MonitoredItem, v Verdict) ProductStatus {
	return ProductStatus{
		Name:        item.Name,
		Shop:        item.Shop,
		Sizes:       item.Sizes,
		MaxPrice:    item.MaxPrice,
		Available:   v.Available,
		Price:       v.Price,
		Error:       v.Reason,
		LastChecked: v.CheckedAt,
	}
}
