package bb84

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

var (
	DefaultQubitCount     = 2000
	DefaultInterceptRate  = 1.0
	DefaultSampleRatio    = 0.2
	DefaultQBERThreshold  = 0.11
	DefaultOutputKeyBytes = 16
	DefaultSaltBytes      = 16
	DefaultExtractor      = SHA256
	DefaultConfidence     = 0.95
)

// A Config holds the tunable parameters of one BB84 run. Use DefaultConfig as
// a starting point; a Config is copied into a Simulation and never mutated
// afterwards.
type Config struct {
	// QubitCount is the number of transmission slots. Zero means
	// DefaultQubitCount.
	QubitCount int `yaml:"qubitCount" json:"qubitCount"`

	// EveEnabled places an intercept-resend eavesdropper on the channel.
	EveEnabled bool `yaml:"eveEnabled" json:"eveEnabled"`

	// InterceptRate is the probability, in [0, 1], that Eve intercepts any
	// given qubit. Only meaningful when EveEnabled is set. Not defaulted.
	InterceptRate float64 `yaml:"interceptRate" json:"interceptRate"`

	// SampleRatio is the fraction of sifted bits revealed to estimate the
	// QBER, in (0, 1]. Zero means DefaultSampleRatio.
	SampleRatio float64 `yaml:"sampleRatio" json:"sampleRatio"`

	// QBERThreshold is the abort cutoff: a run is suspicious iff its QBER is
	// strictly greater. Zero is a legal threshold and is not defaulted.
	QBERThreshold float64 `yaml:"qberThreshold" json:"qberThreshold"`

	// OutputKeyBytes is the final key length. Zero means
	// DefaultOutputKeyBytes.
	OutputKeyBytes int `yaml:"outputKeyBytes" json:"outputKeyBytes"`

	// SaltBytes is the length of the random salt mixed into hash-based
	// privacy amplification. Zero means DefaultSaltBytes.
	SaltBytes int `yaml:"saltBytes" json:"saltBytes"`

	// Extractor selects the privacy amplification function. Empty means
	// DefaultExtractor.
	Extractor Extractor `yaml:"extractor" json:"extractor"`

	// Confidence is the one-sided confidence level of the reported QBER
	// upper bound, in (0, 1). Zero means DefaultConfidence.
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// DefaultConfig returns the configuration of the reference demo, with the
// eavesdropper disabled.
func DefaultConfig() Config {
	return Config{
		QubitCount:     DefaultQubitCount,
		InterceptRate:  DefaultInterceptRate,
		SampleRatio:    DefaultSampleRatio,
		QBERThreshold:  DefaultQBERThreshold,
		OutputKeyBytes: DefaultOutputKeyBytes,
		SaltBytes:      DefaultSaltBytes,
		Extractor:      DefaultExtractor,
		Confidence:     DefaultConfidence,
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data over DefaultConfig and validates the
// result.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// withDefaults fills fields whose zero value is not a legal setting.
func (c Config) withDefaults() Config {
	if c.QubitCount == 0 {
		c.QubitCount = DefaultQubitCount
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = DefaultSampleRatio
	}
	if c.OutputKeyBytes == 0 {
		c.OutputKeyBytes = DefaultOutputKeyBytes
	}
	if c.SaltBytes == 0 {
		c.SaltBytes = DefaultSaltBytes
	}
	if c.Extractor == "" {
		c.Extractor = DefaultExtractor
	}
	if c.Confidence == 0 {
		c.Confidence = DefaultConfidence
	}
	return c
}

// Validate reports whether c describes a runnable protocol.
func (c Config) Validate() error {
	switch {
	case c.QubitCount < 1:
		return fmt.Errorf("%w: qubit count %d must be positive", ErrInvalidConfig, c.QubitCount)
	case c.InterceptRate < 0 || c.InterceptRate > 1:
		return fmt.Errorf("%w: intercept rate %v outside [0, 1]", ErrInvalidConfig, c.InterceptRate)
	case !(c.SampleRatio > 0 && c.SampleRatio <= 1):
		return fmt.Errorf("%w: sample ratio %v outside (0, 1]", ErrInvalidConfig, c.SampleRatio)
	case c.QBERThreshold < 0 || c.QBERThreshold > 1:
		return fmt.Errorf("%w: QBER threshold %v outside [0, 1]", ErrInvalidConfig, c.QBERThreshold)
	case c.OutputKeyBytes < 1:
		return fmt.Errorf("%w: output key bytes %d must be positive", ErrInvalidConfig, c.OutputKeyBytes)
	case c.SaltBytes < 0:
		return fmt.Errorf("%w: salt bytes %d must not be negative", ErrInvalidConfig, c.SaltBytes)
	case !(c.Confidence > 0 && c.Confidence < 1):
		return fmt.Errorf("%w: confidence %v outside (0, 1)", ErrInvalidConfig, c.Confidence)
	}
	size, ok := c.Extractor.digestSize()
	if !ok {
		return fmt.Errorf("%w: unknown extractor %q", ErrInvalidConfig, c.Extractor)
	}
	if size > 0 && c.OutputKeyBytes > size {
		return fmt.Errorf("%w: %s yields at most %d bytes, %d requested",
			ErrInvalidConfig, c.Extractor, size, c.OutputKeyBytes)
	}
	return nil
}
