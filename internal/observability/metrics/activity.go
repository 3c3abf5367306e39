package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Activity is a point-in-time read of successful appointment mutations
// since the process started.
type Activity struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
	Deleted int64 `json:"deleted"`
}

// ReadActivity gathers the mutation counter from g. A nil gatherer uses the default registry.
func ReadActivity(g prometheus.Gatherer) (Activity, error) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return Activity{}, err
	}
	var out Activity
	for _, mf := range families {
		if mf.GetName() != "clinic_schedule_"+MutationsMetricName {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := labelMap(m)
			if labels["result"] != "ok" {
				continue
			}
			n := int64(m.GetCounter().GetValue())
			switch labels["action"] {
			case "create":
				out.Created += n
			case "update":
				out.Updated += n
			case "delete":
				out.Deleted += n
			}
		}
	}
	return out, nil
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
