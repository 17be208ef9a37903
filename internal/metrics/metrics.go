package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sketchwars_rooms_created_total",
		Help: "Rooms created since process start.",
	})
	WSConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sketchwars_ws_connections_total",
		Help: "Accepted WebSocket connections since process start.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
