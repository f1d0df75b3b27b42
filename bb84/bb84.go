// Package bb84 simulates the BB84 quantum key distribution protocol between
// two honest parties, optionally with an intercept-resend eavesdropper on the
// quantum channel, followed by the classical post-processing that turns the
// exchanged qubits into a shared key: basis sifting, error rate estimation,
// the abort decision and privacy amplification.
//
// Measurement physics is modelled statistically (see package photon), and
// there is no error correction: the key is distilled from Bob's bits.
//
// A run that detects eavesdropping is not an error. Its Result carries
// Suspicious = true together with a fully computed key, and it is the
// caller's responsibility to discard that key. Result.Usable makes the check
// explicit.
package bb84

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/qkdsim/bb84/bb84/bitarray"
	"github.com/qkdsim/bb84/bb84/entropy"
	"github.com/qkdsim/bb84/bb84/photon"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// A Stage is a step of the protocol. A run moves through the stages strictly
// in order, visiting exactly one of StageAbort and StageAmplify.
type Stage int

const (
	StagePrepare Stage = iota
	StageTransmit
	StageSift
	StageEstimate
	StageAbort
	StageAmplify
	StageDone
)

var stageNames = [...]string{"prepare", "transmit", "sift", "estimate", "abort", "amplify", "done"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// A Result summarizes one run of the protocol. Every field is always set.
type Result struct {
	QubitCount       int       `json:"qubitCount"`
	EveEnabled       bool      `json:"eveEnabled"`
	InterceptRate    float64   `json:"interceptRate"`
	InterceptedCount int       `json:"interceptedCount"`
	SiftedLength     int       `json:"siftedLength"`
	SampleCount      int       `json:"sampleCount"`
	SampleErrors     int       `json:"sampleErrors"`
	QBER             float64   `json:"qber"`
	QBERThreshold    float64   `json:"qberThreshold"`
	QBERUpperBound   float64   `json:"qberUpperBound"`
	Suspicious       bool      `json:"suspicious"`
	RawKeyBitCount   int       `json:"rawKeyBitCount"`
	Extractor        Extractor `json:"extractor"`

	// FinalKeyHex is the lowercase hex encoding of the final key. It is set
	// even when Suspicious is true.
	FinalKeyHex string `json:"finalKeyHex"`
}

// Usable reports whether the key may be used, i.e. no eavesdropping was
// detected.
func (r Result) Usable() bool {
	return !r.Suspicious
}

// Key decodes FinalKeyHex.
func (r Result) Key() ([]byte, error) {
	return hex.DecodeString(r.FinalKeyHex)
}

// SimOpts packages together the arguments necessary to construct a new
// Simulation.
type SimOpts struct {
	// Config holds the protocol parameters. Zero-valued sizes and ratios take
	// their defaults; see Config.
	Config Config

	// Rand provides all randomness. Defaults to entropy.Crypto(). Anything
	// else is only appropriate for experiments and tests.
	Rand entropy.Source

	// Logger receives per-stage diagnostics. Defaults to logrus.New().
	Logger *logrus.Logger

	// Salt, if non-nil, replaces the freshly drawn privacy amplification salt
	// (or Toeplitz seed) in every run, making the final key a deterministic
	// function of the raw key. For reproducibility tests only.
	Salt []byte
}

// A Simulation runs BB84 with a fixed configuration. Each call to Run is an
// independent one-shot trial; retrying is up to the caller.
type Simulation struct {
	cfg  Config
	rand entropy.Source
	log  *logrus.Logger
	salt []byte
}

// NewSimulation returns a new Simulation configured in accordance with opts,
// or an error if the options are nonsensical.
func NewSimulation(opts SimOpts) (*Simulation, error) {
	cfg := opts.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := opts.Rand
	if r == nil {
		r = entropy.Crypto()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	var salt []byte
	if opts.Salt != nil {
		salt = append([]byte{}, opts.Salt...)
	}
	return &Simulation{cfg: cfg, rand: r, log: log, salt: salt}, nil
}

// Run runs the protocol with cfg, drawing randomness from the operating
// system.
func Run(cfg Config) (Result, error) {
	s, err := NewSimulation(SimOpts{Config: cfg})
	if err != nil {
		return Result{}, err
	}
	return s.Run()
}

// Config returns the effective configuration of s.
func (s *Simulation) Config() Config {
	return s.cfg
}

// Run performs one complete run of the protocol.
func (s *Simulation) Run() (Result, error) {
	return s.RunContext(context.Background())
}

// RunContext is Run, recording a trace span per stage under ctx. The run is
// CPU bound and does not observe cancellation.
func (s *Simulation) RunContext(ctx context.Context) (res Result, err error) {
	cfg := s.cfg
	ctx, span, end := startSpan(ctx, "bb84.Run",
		attribute.Int("bb84.qubits", cfg.QubitCount),
		attribute.Bool("bb84.eve", cfg.EveEnabled),
		attribute.Float64("bb84.intercept_rate", cfg.InterceptRate),
	)
	defer func() {
		if err == nil {
			span.SetAttributes(resultAttributes(res)...)
		}
		end(err)
	}()

	res = Result{
		QubitCount:    cfg.QubitCount,
		EveEnabled:    cfg.EveEnabled,
		InterceptRate: cfg.InterceptRate,
		QBERThreshold: cfg.QBERThreshold,
		Extractor:     cfg.Extractor,
	}
	var (
		channel *photon.Channel
		records []photon.Record
		sifted  Sifted
		mask    bitarray.Dense
		est     Estimate
		key     []byte
	)

	err = s.stage(ctx, StagePrepare, func() error {
		channel = &photon.Channel{Rand: s.rand}
		if cfg.EveEnabled {
			channel.Eve = &photon.Eavesdropper{InterceptRate: cfg.InterceptRate}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	err = s.stage(ctx, StageTransmit, func() error {
		var err error
		records, err = channel.Transmit(cfg.QubitCount)
		res.InterceptedCount = photon.InterceptedCount(records)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	_ = s.stage(ctx, StageSift, func() error {
		sifted = Sift(records)
		res.SiftedLength = sifted.Len()
		return nil
	})

	err = s.stage(ctx, StageEstimate, func() error {
		var err error
		mask, res.SampleCount, err = Sample(sifted.Len(), cfg.SampleRatio, s.rand)
		if err != nil {
			return err
		}
		est = EstimateQBER(sifted, mask)
		res.SampleErrors, res.QBER = est.Errors, est.QBER
		res.QBERUpperBound = QBERUpperBound(est.Errors, est.SampleCount, cfg.Confidence)
		res.Suspicious = Suspicious(est.QBER, cfg.QBERThreshold)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Suspicious {
		_ = s.stage(ctx, StageAbort, func() error {
			s.log.WithFields(logrus.Fields{
				"qber":      est.QBER,
				"threshold": cfg.QBERThreshold,
				"errors":    est.Errors,
				"sampled":   est.SampleCount,
			}).Warn("QBER above threshold, eavesdropping suspected: final key must not be used")
			return nil
		})
	}

	// An aborted run still distils a key; Result.Suspicious tells the caller
	// to throw it away.
	err = s.stage(ctx, StageAmplify, func() error {
		raw := RawKey(sifted, mask)
		res.RawKeyBitCount = raw.Size()
		var err error
		key, err = amplify(cfg.Extractor, raw, s.rand, s.salt, cfg.OutputKeyBytes, cfg.SaltBytes)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	res.FinalKeyHex = hex.EncodeToString(key)

	s.log.WithFields(logrus.Fields{
		"stage":       StageDone,
		"sifted":      res.SiftedLength,
		"qber":        res.QBER,
		"suspicious":  res.Suspicious,
		"rawKeyBits":  res.RawKeyBitCount,
		"intercepted": res.InterceptedCount,
	}).Debug("bb84 run complete")
	return res, nil
}

// stage runs f as protocol stage st, tracing it and wrapping any failure in a
// StageError.
func (s *Simulation) stage(ctx context.Context, st Stage, f func() error) error {
	_, _, end := startSpan(ctx, "bb84."+st.String())
	err := f()
	end(err)
	if err != nil {
		s.log.WithFields(logrus.Fields{"stage": st, "error": err}).Error("bb84 run failed")
		return &StageError{Stage: st, Err: err}
	}
	s.log.WithField("stage", st).Debug("bb84 stage complete")
	return nil
}
