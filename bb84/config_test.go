package bb84

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 2000, c.QubitCount)
	assert.False(t, c.EveEnabled)
	assert.Equal(t, 1.0, c.InterceptRate)
	assert.Equal(t, 0.2, c.SampleRatio)
	assert.Equal(t, 0.11, c.QBERThreshold)
	assert.Equal(t, 16, c.OutputKeyBytes)
	assert.Equal(t, SHA256, c.Extractor)
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no qubits", func(c *Config) { c.QubitCount = -1 }},
		{"intercept rate above one", func(c *Config) { c.InterceptRate = 1.5 }},
		{"negative intercept rate", func(c *Config) { c.InterceptRate = -0.1 }},
		{"sample ratio above one", func(c *Config) { c.SampleRatio = 1.01 }},
		{"negative sample ratio", func(c *Config) { c.SampleRatio = -0.2 }},
		{"threshold above one", func(c *Config) { c.QBERThreshold = 2 }},
		{"empty key", func(c *Config) { c.OutputKeyBytes = -16 }},
		{"key longer than digest", func(c *Config) { c.OutputKeyBytes = 33 }},
		{"unknown extractor", func(c *Config) { c.Extractor = "crc32" }},
		{"certain confidence", func(c *Config) { c.Confidence = 1 }},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.modify(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}

	c := DefaultConfig()
	c.Extractor = Toeplitz
	c.OutputKeyBytes = 64
	assert.NoError(t, c.Validate(), "toeplitz output is not bounded by a digest size")
}

func TestWithDefaults(t *testing.T) {
	c := Config{EveEnabled: true, InterceptRate: 0.5}.withDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultQubitCount, c.QubitCount)
	assert.Equal(t, DefaultSampleRatio, c.SampleRatio)
	assert.Equal(t, DefaultOutputKeyBytes, c.OutputKeyBytes)
	assert.Equal(t, 0.5, c.InterceptRate)
	assert.Zero(t, c.QBERThreshold)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bb84.yaml")
	data := []byte("qubitCount: 5000\neveEnabled: true\ninterceptRate: 0.3\nextractor: blake2b-256\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, c.QubitCount)
	assert.True(t, c.EveEnabled)
	assert.Equal(t, 0.3, c.InterceptRate)
	assert.Equal(t, BLAKE2b256, c.Extractor)
	assert.Equal(t, DefaultQBERThreshold, c.QBERThreshold, "absent keys keep their defaults")

	_, err = ParseConfig([]byte("qubitCont: 5\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig, "misspelled keys are rejected")

	_, err = ParseConfig([]byte("sampleRatio: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
