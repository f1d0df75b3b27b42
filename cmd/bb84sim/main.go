// bb84sim runs a single BB84 key exchange, optionally with an intercept-resend
// eavesdropper, and reports what each party saw along the way.
//
// Parameters come from DefaultConfig, then an optional YAML file given with
// --config, then any flags set explicitly on the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/qkdsim/bb84/bb84"
	"github.com/qkdsim/bb84/bb84/entropy"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	configPath    = flag.String("config", "", "Path to a YAML config file.")
	qubits        = flag.Int("qubits", bb84.DefaultQubitCount, "The number of qubits Alice sends.")
	eve           = flag.Bool("eve", false, "Place an intercept-resend eavesdropper on the quantum channel.")
	interceptRate = flag.Float64("intercept-rate", bb84.DefaultInterceptRate, "The probability that Eve intercepts any given qubit.")
	sampleRatio   = flag.Float64("sample-ratio", bb84.DefaultSampleRatio, "The fraction of sifted bits disclosed to estimate the QBER.")
	threshold     = flag.Float64("threshold", bb84.DefaultQBERThreshold, "Abort when the estimated QBER exceeds this.")
	keyBytes      = flag.Int("key-bytes", bb84.DefaultOutputKeyBytes, "The length of the final key in bytes.")
	extractor     = flag.String("extractor", string(bb84.DefaultExtractor), "The privacy amplification function: sha256, sha3-256, blake2b-256 or toeplitz.")
	seed          = flag.Int64("seed", 0, "Seed a deterministic PRNG instead of using the operating system's randomness. Never use seeded keys.")
	logLevel      = flag.String("log-level", "warning", "The logrus level for diagnostics on stderr.")
	asJSON        = flag.Bool("json", false, "Print the result as JSON instead of a report.")
	asWire        = flag.Bool("wire", false, "Write the result as a single length-prefixed protobuf frame.")
)

func main() {
	flag.Parse()
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Bad --log-level: %v", err)
	}
	log.SetLevel(lvl)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}
	opts := bb84.SimOpts{Config: cfg, Logger: log}
	if flag.CommandLine.Changed("seed") {
		log.WithField("seed", *seed).Warn("Using a seeded PRNG, the key is not secret")
		opts.Rand = entropy.NewPRNG(*seed)
	}
	sim, err := bb84.NewSimulation(opts)
	if err != nil {
		log.Fatalf("Configuring simulation: %v", err)
	}
	res, err := sim.Run()
	if err != nil {
		log.Fatalf("Running BB84: %v", err)
	}

	switch {
	case *asWire:
		err = bb84.WriteResult(os.Stdout, res)
	case *asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	default:
		err = report(os.Stdout, res)
	}
	if err != nil {
		log.Fatalf("Writing result: %v", err)
	}
}

// loadConfig layers explicitly set flags over the config file, if any, over
// the defaults.
func loadConfig() (bb84.Config, error) {
	cfg := bb84.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = bb84.LoadConfig(*configPath); err != nil {
			return bb84.Config{}, err
		}
	}
	set := flag.CommandLine.Changed
	if set("qubits") {
		cfg.QubitCount = *qubits
	}
	if set("eve") {
		cfg.EveEnabled = *eve
	}
	if set("intercept-rate") {
		cfg.InterceptRate = *interceptRate
	}
	if set("sample-ratio") {
		cfg.SampleRatio = *sampleRatio
	}
	if set("threshold") {
		cfg.QBERThreshold = *threshold
	}
	if set("key-bytes") {
		cfg.OutputKeyBytes = *keyBytes
	}
	if set("extractor") {
		cfg.Extractor = bb84.Extractor(*extractor)
	}
	return cfg, cfg.Validate()
}

type line struct {
	label string
	value interface{}
}

func report(w io.Writer, r bb84.Result) error {
	verdict := "NO (OK)"
	if r.Suspicious {
		verdict = "YES (ABORT)"
	}
	lines := []line{
		{"N qubits sent", r.QubitCount},
		{"Eve enabled", r.EveEnabled},
		{"Eve intercept rate", r.InterceptRate},
	}
	if r.EveEnabled {
		lines = append(lines, line{"Eve intercepted count", r.InterceptedCount})
	}
	lines = append(lines,
		line{"Sifted bits (basis match)", r.SiftedLength},
		line{"Sampled for QBER check", r.SampleCount},
		line{"Sample errors", r.SampleErrors},
		line{"QBER (error rate)", percent(r.QBER)},
		line{"QBER upper bound", percent(r.QBERUpperBound)},
		line{"QBER threshold", percent(r.QBERThreshold)},
		line{"Detected eavesdropping?", verdict},
		line{"Raw key bits left", r.RawKeyBitCount},
		line{"Extractor", r.Extractor},
		line{"Final key (PA, hex)", r.FinalKeyHex},
	)

	if _, err := fmt.Fprintln(w, "=== BB84 QKD Simulation ==="); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-28s%v\n", l.label+":", l.value); err != nil {
			return err
		}
	}
	return nil
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", 100*f)
}
