package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"gopkg.in/yaml.v2"
)

const sample = `
input:
  zones:
    file: zones.yaml
  population:
    file: population.yaml
control:
  days: [0, 1]
  threads: 4
  fraction: 0.5
  seed: 42
  modes: [walk, car, public_transport]
output:
  trips_csv: out/trips.csv
`

func TestRuntimeConfigDefaults(t *testing.T) {
	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	assert.Equal(t, int32(0), rc.FirstDay)
	assert.Equal(t, int32(1), rc.LastDay)
	assert.Equal(t, int64(900), rc.C.Slice)
	assert.Equal(t, config.ReschedulingShift, rc.C.Rescheduling.Strategy)
	assert.Equal(t, []entity.Mode{entity.ModeWalk, entity.ModeCar, entity.ModePublicTransport}, rc.Modes)
	assert.True(t, rc.HasMode(entity.ModeCar))
	assert.False(t, rc.HasMode(entity.ModeBike))
}

func TestRuntimeConfigAllModesByDefault(t *testing.T) {
	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))
	c.Control.Modes = nil
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	assert.Equal(t, entity.AllModes, rc.Modes)
}

func TestRuntimeConfigValidate(t *testing.T) {
	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))
	c.Control.Threads = 0
	c.Control.Days = []int32{1, 3}
	c.Control.Fraction = 1.5
	c.Control.Modes = []string{"hovercraft"}
	c.Control.Rescheduling.Strategy = "random"
	c.Control.DestinationChoice = map[string]string{"shopping": "/does/not/exist.yaml"}
	_, err := config.NewRuntimeConfig(c)
	require.Error(t, err)
	for _, s := range []string{"threads", "consecutive", "fraction", "hovercraft", "random", "shopping"} {
		assert.Contains(t, err.Error(), s)
	}
}

func TestRuntimeConfigDestinationChoiceFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.yaml")
	require.NoError(t, os.WriteFile(path, []byte("time: -0.1\n"), 0o644))

	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))
	c.Control.DestinationChoice = map[string]string{"work": path}
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	assert.Equal(t, path, rc.DestinationChoice[entity.ActivityWork])
}

func TestStrictUnknownField(t *testing.T) {
	var c config.Config
	err := yaml.UnmarshalStrict([]byte("control:\n  threadz: 1\n"), &c)
	assert.Error(t, err)
}
