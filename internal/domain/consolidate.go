package domain

import (
	"fmt"
)

// Consolidate merges the line items of each group into a single Order.
//
// Every group holds all lines sharing one order identifier. Quantities and
// revenue are summed; the most urgent shelf life and expiry date win, and
// the longest lead time is kept. Identity, dates, destination and contact
// come from the first line. Empty groups are skipped. Single-line groups
// are returned unchanged, so consolidating consolidated orders is a no-op.
func Consolidate(groups [][]Order) []Order {
	out := make([]Order, 0, len(groups))

	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		base := group[0]
		merged := Order{
			ID:                 base.ID,
			OrderDate:          base.OrderDate,
			Product:            fmt.Sprintf("Order_%d_Consolidated", base.ID),
			Destination:        base.Destination,
			LeadTimeHours:      base.LeadTimeHours,
			ShelfLifeDays:      base.ShelfLifeDays,
			DistanceHintKm:     base.DistanceHintKm,
			CustomerEmail:      base.CustomerEmail,
			TotalShelfLifeDays: base.TotalShelfLifeDays,
			FinalExpiryDate:    base.FinalExpiryDate,
		}

		for _, line := range group {
			merged.Quantity += line.Quantity
			merged.Revenue += line.Revenue
			merged.ShelfLifeDays = min(merged.ShelfLifeDays, line.ShelfLifeDays)
			merged.LeadTimeHours = max(merged.LeadTimeHours, line.LeadTimeHours)
			merged.TotalShelfLifeDays = max(merged.TotalShelfLifeDays, line.TotalShelfLifeDays)
			if line.FinalExpiryDate.Before(merged.FinalExpiryDate) {
				merged.FinalExpiryDate = line.FinalExpiryDate
			}
		}

		out = append(out, merged)
	}

	return out
}

// GroupByID groups flat order lines by identifier, preserving the order in
// which identifiers are first seen.
func GroupByID(lines []Order) [][]Order {
	index := make(map[int]int)
	groups := make([][]Order, 0)

	for _, line := range lines {
		i, ok := index[line.ID]
		if !ok {
			i = len(groups)
			index[line.ID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], line)
	}

	return groups
}
