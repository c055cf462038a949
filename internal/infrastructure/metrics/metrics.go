package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Auction metrics
	AuctionsCreated prometheus.Counter
	AuctionsClosed  prometheus.Counter

	// Bid metrics
	BidsAccepted        prometheus.Counter
	BidsRejected        *prometheus.CounterVec
	CommissionCollected prometheus.Histogram

	// Settlement metrics
	Retractions         prometheus.Counter
	InstructionsEmitted *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered against a custom registry.
// Tests use this to avoid duplicate registration on the default registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuctionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobid_auctions_created_total",
			Help: "Total number of auctions created",
		}),
		AuctionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobid_auctions_closed_total",
			Help: "Total number of auctions closed",
		}),
		BidsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobid_bids_accepted_total",
			Help: "Total number of accepted bids",
		}),
		BidsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobid_bids_rejected_total",
				Help: "Total number of rejected bids by reason",
			},
			[]string{"reason"},
		),
		CommissionCollected: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobid_commission_collected",
			Help:    "Commission fees collected per accepted bid",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		Retractions: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobid_retractions_total",
			Help: "Total number of successful retractions",
		}),
		InstructionsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobid_transfer_instructions_total",
				Help: "Total number of transfer instructions emitted by reason",
			},
			[]string{"reason"},
		),
	}
}
