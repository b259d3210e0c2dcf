package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments for the posting core.
type Metrics struct {
	VouchersPosted      *prometheus.CounterVec
	VouchersCancelled   *prometheus.CounterVec
	SequenceConflicts   prometheus.Counter
	AllocationsApplied  prometheus.Counter
	AllocationsRejected prometheus.Counter
	PostingDuration     prometheus.Histogram
}

// New registers the domain instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VouchersPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekha_vouchers_posted_total",
			Help: "Vouchers successfully posted, by voucher type.",
		}, []string{"type"}),
		VouchersCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lekha_vouchers_cancelled_total",
			Help: "Vouchers cancelled, by prior status.",
		}, []string{"from_status"}),
		SequenceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lekha_sequence_conflicts_total",
			Help: "Duplicate voucher number conflicts that triggered a posting retry.",
		}),
		AllocationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lekha_bill_allocations_applied_total",
			Help: "Bill allocations applied.",
		}),
		AllocationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lekha_bill_allocations_rejected_total",
			Help: "Allocation batches rejected for over-allocation.",
		}),
		PostingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lekha_voucher_posting_seconds",
			Help:    "Wall time of voucher posting transactions.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.VouchersPosted,
		m.VouchersCancelled,
		m.SequenceConflicts,
		m.AllocationsApplied,
		m.AllocationsRejected,
		m.PostingDuration,
	)
	return m
}

// NewNop returns instruments bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func provide() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

var Module = fx.Module("observability.metrics",
	fx.Provide(provide),
)
