package arl

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/common"
	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// Metric names a rule interest measure.
type Metric string

// Supported metrics.
const (
	MetricAntecedentSupport Metric = "antecedent support"
	MetricConsequentSupport Metric = "consequent support"
	MetricSupport           Metric = "support"
	MetricConfidence        Metric = "confidence"
	MetricLift              Metric = "lift"
	MetricLeverage          Metric = "leverage"
	MetricConviction        Metric = "conviction"
	MetricZhang             Metric = "zhangs_metric"
	MetricJaccard           Metric = "jaccard"
	MetricCertainty         Metric = "certainty"
	MetricKulczynski        Metric = "kulczynski"
)

var metricValues = map[Metric]func(*model.Rule) float64{
	MetricAntecedentSupport: func(r *model.Rule) float64 { return r.AntecedentSupport },
	MetricConsequentSupport: func(r *model.Rule) float64 { return r.ConsequentSupport },
	MetricSupport:           func(r *model.Rule) float64 { return r.Support },
	MetricConfidence:        func(r *model.Rule) float64 { return r.Confidence },
	MetricLift:              func(r *model.Rule) float64 { return r.Lift },
	MetricLeverage:          func(r *model.Rule) float64 { return r.Leverage },
	MetricConviction:        func(r *model.Rule) float64 { return r.Conviction },
	MetricZhang:             func(r *model.Rule) float64 { return r.ZhangsMetric },
	MetricJaccard:           func(r *model.Rule) float64 { return r.Jaccard },
	MetricCertainty:         func(r *model.Rule) float64 { return r.Certainty },
	MetricKulczynski:        func(r *model.Rule) float64 { return r.Kulczynski },
}

// Metrics lists every supported metric in report column order.
func Metrics() []Metric {
	return []Metric{
		MetricAntecedentSupport,
		MetricConsequentSupport,
		MetricSupport,
		MetricConfidence,
		MetricLift,
		MetricLeverage,
		MetricConviction,
		MetricZhang,
		MetricJaccard,
		MetricCertainty,
		MetricKulczynski,
	}
}

// ParseMetric resolves a metric name. Case, spaces, dashes and underscores are interchangeable.
func ParseMetric(name string) (Metric, error) {
	want := normalizeMetric(name)
	for _, m := range Metrics() {
		if normalizeMetric(string(m)) == want {
			return m, nil
		}
	}
	if want == "zhang" || want == "zhangs" {
		return MetricZhang, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownMetric, name)
}

func normalizeMetric(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Valid reports whether the metric is known.
func (m Metric) Valid() bool {
	_, ok := metricValues[m]
	return ok
}

// Value extracts the metric from a rule.
func (m Metric) Value(r *model.Rule) float64 {
	if fn, ok := metricValues[m]; ok {
		return fn(r)
	}
	return 0
}
