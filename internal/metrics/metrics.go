package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "citabot"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	conversationsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversations_started_total",
		Help:      "Scripted conversation runs started.",
	})

	paymentsSimulated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_simulated_total",
		Help:      "Payments simulated before the deadline.",
	})

	paymentTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_timeouts_total",
		Help:      "Payment deadlines that elapsed without a payment.",
	})

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking mutations by action.",
		},
		[]string{"action"},
	)

	pendingBookings = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bookings_pending",
		Help:      "Bookings waiting for payment validation.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			conversationsStarted,
			paymentsSimulated,
			paymentTimeouts,
			bookingEvents,
			pendingBookings,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncConversationStarted() {
	conversationsStarted.Inc()
}

func IncPaymentSimulated() {
	paymentsSimulated.Inc()
}

func IncPaymentTimeout() {
	paymentTimeouts.Inc()
}

// IncBooking counts a booking mutation: created, validated, rejected or released.
func IncBooking(action string, n int) {
	if n <= 0 {
		return
	}
	bookingEvents.WithLabelValues(action).Add(float64(n))
}

func SetPending(n int) {
	pendingBookings.Set(float64(n))
}
