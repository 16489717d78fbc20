package handlers

import (
	"net/http"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

// OrderHandler exposes the stored orders after consolidation.
type OrderHandler struct {
	Repo ports.OrderRepository
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	lines, err := h.Repo.ListOrderLines(r.Context())
	if err != nil {
		log.WithFields(obs.Fields(r.Context())).WithError(err).Error("[api] list orders failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	groups := domain.GroupByID(lines)
	orders := domain.Consolidate(groups)

	res := dto.ListOrdersResponse{Orders: make([]dto.OrderResponse, 0, len(orders))}
	for i, o := range orders {
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID:            o.ID,
			OrderDate:          o.OrderDate,
			Product:            o.Product,
			Destination:        o.Destination,
			Quantity:           o.Quantity,
			Revenue:            o.Revenue,
			ShelfLifeDays:      o.ShelfLifeDays,
			TotalShelfLifeDays: o.TotalShelfLifeDays,
			FinalExpiryDate:    o.FinalExpiryDate,
			Lines:              len(groups[i]),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
