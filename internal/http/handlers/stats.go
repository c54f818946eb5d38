package handlers

import (
	"net/http"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Admin.Stats(r.Context(), currentAccount(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"accounts":          stats.Accounts,
		"images_completed":  stats.ImagesCompleted,
		"images_failed":     stats.ImagesFailed,
		"images_in_flight":  stats.ImagesInFlight,
		"captions":          stats.Captions,
		"credits_sold":      stats.CreditsSold,
		"revenue_approved":  stats.RevenueApproved.StringFixed(2),
		"cost_estimate_24h": stats.CostEstimate24h.String(),
	})
}
