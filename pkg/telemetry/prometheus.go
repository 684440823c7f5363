package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Prometheus exports reports as metrics. Collectors are registered on the
// registerer given to NewPrometheus so tests can use a private registry.
type Prometheus struct {
	steps    *prometheus.CounterVec
	newWords prometheus.Counter
	frontier prometheus.Gauge
	keys     prometheus.Gauge
	analyses prometheus.Counter
	meanings *prometheus.GaugeVec
	merges   prometheus.Histogram
}

// NewPrometheus creates and registers the lexigraph collectors.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexigraph",
			Subsystem: "explore",
			Name:      "steps_total",
			Help:      "Exploration steps by mode and outcome.",
		}, []string{"mode", "outcome"}),
		newWords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lexigraph",
			Subsystem: "explore",
			Name:      "new_words_total",
			Help:      "Words discovered for the first time.",
		}),
		frontier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lexigraph",
			Subsystem: "explore",
			Name:      "frontier_words",
			Help:      "Words referenced but not explored yet.",
		}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lexigraph",
			Subsystem: "explore",
			Name:      "explored_words",
			Help:      "Words present as graph keys.",
		}),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lexigraph",
			Subsystem: "meaning",
			Name:      "analyses_total",
			Help:      "Meaning analyses reported, one per threshold.",
		}),
		meanings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lexigraph",
			Subsystem: "meaning",
			Name:      "meanings",
			Help:      "Meanings found for the last analysed word.",
		}, []string{"target"}),
		merges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lexigraph",
			Subsystem: "meaning",
			Name:      "merges",
			Help:      "Merges performed per analysis.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{p.steps, p.newWords, p.frontier, p.keys, p.analyses, p.meanings, p.merges} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Step(r StepReport) {
	outcome := "ok"
	if r.Err != nil {
		outcome = "error"
	}
	p.steps.WithLabelValues(string(r.Mode), outcome).Inc()
	p.newWords.Add(float64(r.NewWords))
	p.frontier.Set(float64(r.Frontier))
	p.keys.Set(float64(r.Keys))
}

func (p *Prometheus) Analysis(r AnalysisReport) {
	p.analyses.Inc()
	p.meanings.WithLabelValues(r.Target).Set(float64(len(r.Meanings)))
	p.merges.Observe(float64(r.Merges))
}
