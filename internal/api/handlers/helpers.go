package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error("[api] encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// allowMethod answers 405 and reports false when r does not use method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads exactly one JSON object into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func linesToOrders(lines []dto.OrderLine) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(lines))
	for i, l := range lines {
		date, err := time.Parse(time.DateOnly, l.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: order_date must be YYYY-MM-DD", i)
		}
		o, err := domain.NewOrder(domain.Order{
			ID:             l.OrderID,
			OrderDate:      date,
			Product:        l.Product,
			Destination:    l.Destination,
			Quantity:       l.Quantity,
			Revenue:        l.Revenue,
			LeadTimeHours:  l.LeadTimeHours,
			ShelfLifeDays:  l.ShelfLifeDays,
			DistanceHintKm: l.DistanceHintKm,
			CustomerEmail:  l.CustomerEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}
