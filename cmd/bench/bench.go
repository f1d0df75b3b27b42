// bench.go runs a batch of BB84 trials for each entry in the cartesian product
// of a collection of different tuning parameters, e.g. intercept rate and
// qubits sent, and outputs a CSV of aggregate statistics for each different
// combination, e.g. mean QBER and how often eavesdropping was detected.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/qkdsim/bb84/bb84"
	"github.com/qkdsim/bb84/bb84/entropy"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"
)

var (
	qubits        = flag.IntSlice("qubits", []int{bb84.DefaultQubitCount}, "The number of qubits sent per trial.")
	eve           = flag.BoolSlice("eve", []bool{false, true}, "Whether an intercept-resend eavesdropper is present.")
	interceptRate = flag.Float64Slice("interceptRate", []float64{bb84.DefaultInterceptRate}, "The probability that Eve intercepts a qubit.")
	sampleRatio   = flag.Float64Slice("sampleRatio", []float64{bb84.DefaultSampleRatio}, "The fraction of sifted bits disclosed for QBER estimation.")
	threshold     = flag.Float64Slice("threshold", []float64{bb84.DefaultQBERThreshold}, "The QBER above which a run aborts.")
	extractor     = flag.StringSlice("extractor", []string{string(bb84.DefaultExtractor)}, "The privacy amplification function.")
	trials        = flag.Int("trials", 100, "The number of runs per parameterization.")
	seed          = flag.Int64("seed", 1234, "The PRNG seed of the first trial of each parameterization.")
	logLevel      = flag.String("log-level", "error", "The logrus level for diagnostics on stderr, e.g. warning to see every abort.")
)

var (
	inputs  = []string{"qubits", "eve", "interceptRate", "sampleRatio", "threshold", "extractor"}
	columns = []string{"Qubits", "Eve", "InterceptRate", "SampleRatio", "Threshold", "Extractor",
		"Trials", "Failures", "MeanSifted", "MeanQBER", "StdDevQBER", "MeanQBERUpperBound",
		"DetectionRate", "MeanRawKeyBits"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Qubits        int
	Eve           bool
	InterceptRate float64
	SampleRatio   float64
	Threshold     float64
	Extractor     string
	Trials        int

	// Fields corresponding to experiment results
	Failures           int
	MeanSifted         float64
	MeanQBER           float64
	StdDevQBER         float64
	MeanQBERUpperBound float64
	DetectionRate      float64
	MeanRawKeyBits     float64
}

func main() {
	flag.Parse()
	log := logrus.New()
	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Bad --log-level: %v", err)
	}
	log.SetLevel(lvl)
	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		args = append(args, lookupInput(log, inp))
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Qubits:        args[inpIndex("qubits")].(int),
			Eve:           args[inpIndex("eve")].(bool),
			InterceptRate: args[inpIndex("interceptRate")].(float64),
			SampleRatio:   args[inpIndex("sampleRatio")].(float64),
			Threshold:     args[inpIndex("threshold")].(float64),
			Extractor:     args[inpIndex("extractor")].(string),
			Trials:        *trials,
		}
		if err := bench(exp, *seed, log); err != nil {
			log.WithField("experiment", fmt.Sprintf("%+v", *exp)).Errorf("Benching: %v", err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatalf("BUG: could not fill in line template: %v", err)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

// bench runs exp.Trials independent simulations, seeding trial i with
// seed+i, and fills in exp's result fields. Failed trials are counted and
// excluded from the means.
func bench(exp *Experiment, seed int64, log *logrus.Logger) error {
	sim := func(r entropy.Source) (*bb84.Simulation, error) {
		return bb84.NewSimulation(bb84.SimOpts{
			Config: bb84.Config{
				QubitCount:    exp.Qubits,
				EveEnabled:    exp.Eve,
				InterceptRate: exp.InterceptRate,
				SampleRatio:   exp.SampleRatio,
				QBERThreshold: exp.Threshold,
				Extractor:     bb84.Extractor(exp.Extractor),
			},
			Rand:   r,
			Logger: log,
		})
	}
	if _, err := sim(nil); err != nil {
		return err
	}

	var sifted, qber, bound, detected, rawBits []float64
	var lastErr error
	for i := 0; i < exp.Trials; i++ {
		s, err := sim(entropy.NewPRNG(seed + int64(i)))
		if err != nil {
			return err
		}
		res, err := s.Run()
		if err != nil {
			exp.Failures++
			lastErr = err
			continue
		}
		sifted = append(sifted, float64(res.SiftedLength))
		qber = append(qber, res.QBER)
		bound = append(bound, res.QBERUpperBound)
		rawBits = append(rawBits, float64(res.RawKeyBitCount))
		if res.Suspicious {
			detected = append(detected, 1)
		} else {
			detected = append(detected, 0)
		}
	}
	if len(qber) == 0 {
		return fmt.Errorf("all %d trials failed, last with: %w", exp.Trials, lastErr)
	}
	exp.MeanSifted = stat.Mean(sifted, nil)
	exp.MeanQBER, exp.StdDevQBER = stat.MeanStdDev(qber, nil)
	exp.MeanQBERUpperBound = stat.Mean(bound, nil)
	exp.DetectionRate = stat.Mean(detected, nil)
	exp.MeanRawKeyBits = stat.Mean(rawBits, nil)
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(log *logrus.Logger, name string) []interface{} {
	var r []interface{}
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetBoolSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetStringSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		log.Fatalf("Unknown type for input %s", name)
	}
	return r
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
