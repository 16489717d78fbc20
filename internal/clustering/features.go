package clustering

import (
	"fleet-route-service/internal/domain"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scale applied to 1/(shelf life + 1): lower shelf life, higher urgency.
const urgencyScale = 50.0

// Urgency of an order for clustering purposes.
func Urgency(o domain.Order) float64 {
	return urgencyScale / float64(o.ShelfLifeDays+1)
}

type point struct {
	order   domain.Order
	coords  domain.Coordinates
	urgency float64
}

// enrich attaches coordinates and urgency to orders. Orders whose
// destination has no coordinates are returned separately.
func enrich(orders []domain.Order, coords CoordinateLookup) ([]point, []domain.Order) {
	points := make([]point, 0, len(orders))
	var missing []domain.Order

	for _, o := range orders {
		c, ok := coords.Lookup(o.Destination)
		if !ok {
			missing = append(missing, o)
			continue
		}
		points = append(points, point{order: o, coords: c, urgency: Urgency(o)})
	}

	return points, missing
}

// standardize builds the (lat, lon, urgency) feature matrix with every
// column centred on zero mean and scaled to unit variance. Constant columns
// are centred only.
func standardize(points []point) *mat.Dense {
	n := len(points)
	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.coords.Lat, p.coords.Lon, p.urgency})
	}

	col := make([]float64, n)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, data)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || n < 2 {
			std = 1
		}
		for i := 0; i < n; i++ {
			data.Set(i, j, (col[i]-mean)/std)
		}
	}

	return data
}
