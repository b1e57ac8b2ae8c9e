package order

import (
	"sort"
	"strings"

	"storefront/domain/order"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	placedStatus      = "placed"
	placedTitle       = "Order Placed"
	placedDescription = "Your order has been successfully placed"
)

// statusTitle out_for_delivery -> Out For Delivery
// A Caser is stateful, so one is built per call.
func statusTitle(status order.Status) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}

// buildHistory synthetic placement entry plus every status change, newest first.
func buildHistory(o *order.Order) []HistoryEntry {
	history := o.StatusHistory()
	entries := make([]HistoryEntry, 0, len(history)+1)
	entries = append(entries, HistoryEntry{
		Status:      placedStatus,
		Title:       placedTitle,
		Description: placedDescription,
		Timestamp:   o.CreatedAt(),
	})
	for _, h := range history {
		description := h.Note
		if strings.TrimSpace(description) == "" {
			description = "Order status changed to " + string(h.Status)
		}
		entries = append(entries, HistoryEntry{
			Status:      string(h.Status),
			Title:       statusTitle(h.Status),
			Description: description,
			Timestamp:   h.Timestamp,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}
