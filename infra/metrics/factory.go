package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/makespan/core/factory"
	coremetrics "github.com/kilianp07/makespan/core/metrics"
)

type influxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

func (c *influxConfig) setDefaults() {
	if c.Bucket == "" {
		c.Bucket = "makespan"
	}
}

func (c influxConfig) validate() error {
	if c.URL == "" {
		return errors.New("influx sink: url is required")
	}
	if c.Org == "" {
		return errors.New("influx sink: org is required")
	}
	return nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		// The listen address lives in metrics.prometheus_port; the sink only registers collectors.
		return NewPromSinkWithRegistry(coremetrics.Config{}, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c influxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.setDefaults()
		if err := c.validate(); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
