package metrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/makespan/core/metrics"
)

func TestConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: prometheus
  - type: influx
    conf:
      url: http://localhost:8086
      org: lab
prometheusport: ":9100"
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	require.Len(t, cfg.Sinks, 2)
	assert.True(t, cfg.PrometheusEnabled())
	assert.Equal(t, "http://localhost:8086", cfg.Sinks[1].Conf["url"])
}

func TestConfigDecodeJSON(t *testing.T) {
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"nop"}]}`), &cfg))
	assert.False(t, cfg.PrometheusEnabled())

	cfg.SetDefaults()
	assert.Equal(t, ":2112", cfg.PrometheusPort)
}
