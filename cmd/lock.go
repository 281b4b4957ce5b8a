package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/fyerfyer/logic-lock/pkg/algorithm"
	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/config"
	"github.com/fyerfyer/logic-lock/pkg/metrics"
	"github.com/fyerfyer/logic-lock/pkg/utils"
	"github.com/fyerfyer/logic-lock/pkg/verify"
)

// jobFlags holds the command line form of a locking job. Flags that were set
// explicitly override the job file.
type jobFlags struct {
	configFile   string
	input        string
	output       string
	verilog      string
	verilogGates bool
	algorithm    string
	bits         int
	percentage   float64
	rounds       int
	seed         int64
	workers      int
	timeout      string
	keyReport    string
	metricsFile  string
	verify       bool
}

func (j *jobFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&j.configFile, "config", "", "HCL job file; flags given explicitly override it")
	fs.StringVarP(&j.algorithm, "algorithm", "a", config.DefaultAlgorithm, "Locking algorithm (RLL or FLL)")
	fs.IntVarP(&j.bits, "lock-by-bits", "b", 0, "Number of key bits to insert")
	fs.Float64VarP(&j.percentage, "lock-by-percentage", "p", 0, "Fraction of lockable nodes to lock, in (0, 1]")
	fs.StringVarP(&j.input, "input-file", "i", config.DefaultInputFile, "Input netlist in BENCH format")
	fs.StringVarP(&j.output, "output-file", "o", config.DefaultOutputFile, "Locked netlist in BENCH format")
	fs.IntVarP(&j.rounds, "rounds", "r", algorithm.DefaultRounds, "Fault analysis rounds per key bit (FLL)")
	fs.Int64VarP(&j.seed, "seed", "s", 0, "Random seed (default: current time)")
	fs.StringVarP(&j.verilog, "visualization-file", "v", config.DefaultVerilogFile, "Locked netlist in Verilog")
	fs.BoolVar(&j.verilogGates, "verilog-gates", false, "Write Verilog as gate instances instead of assign expressions")
	fs.IntVar(&j.workers, "workers", 0, "Fault analysis workers (default: GOMAXPROCS)")
	fs.StringVar(&j.timeout, "timeout", "", "Abort locking after this duration, e.g. 30s")
	fs.StringVar(&j.keyReport, "key-report", "", "Write the key and insertion sites to this YAML file")
	fs.StringVar(&j.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fs.BoolVar(&j.verify, "verify", false, "Prove with a SAT solver that the key restores the original function")
}

// resolve builds the job: defaults, then the job file, then explicit flags
func (j *jobFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if j.configFile != "" {
		loaded, err := config.Load(j.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "input-file":
			cfg.Input = j.input
		case "output-file":
			cfg.Output = j.output
		case "visualization-file":
			cfg.Verilog = j.verilog
		case "verilog-gates":
			cfg.VerilogGates = j.verilogGates
		case "algorithm":
			cfg.Algorithm = j.algorithm
		case "lock-by-bits":
			cfg.Bits = j.bits
		case "lock-by-percentage":
			cfg.Percentage = j.percentage
		case "rounds":
			cfg.Rounds = j.rounds
		case "seed":
			seed := j.seed
			cfg.Seed = &seed
		case "workers":
			cfg.Workers = j.workers
		case "timeout":
			cfg.Timeout = j.timeout
		case "key-report":
			cfg.KeyReport = j.keyReport
		case "metrics-file":
			cfg.MetricsFile = j.metricsFile
		case "verify":
			cfg.Verify = j.verify
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runLock(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return err
	}
	seed := cfg.SeedOr(time.Now().UnixNano())

	logger.Info("Parsing circuit from %s", cfg.Input)
	original, err := utils.ParseBenchFile(cfg.Input, logger)
	if err != nil {
		return errors.Wrap(err, "failed to parse circuit")
	}
	topo := circuit.NewTopology(original)
	if err := topo.Analyze(); err != nil {
		return err
	}
	logger.Info("Circuit %s: depth %d, %d fanout points", original.Name, topo.MaxLevel, len(topo.FanoutPoints))

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	locker, err := algorithm.NewLocker(strategy, algorithm.Options{
		Seed:    seed,
		Rounds:  cfg.Rounds,
		Workers: cfg.Workers,
		Logger:  logger,
		Metrics: recorder,
	})
	if err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	locked := original.Clone()
	logger.Info("Locking %s with %s (seed %d)", original.Name, strategy, seed)
	result, err := locker.Lock(ctx, locked, cfg.Sizing())
	if err != nil {
		return errors.Wrap(err, "locking failed")
	}

	report := newReport(original.Name, cfg, result)
	if cfg.Verify {
		ok, err := checkResult(original, locked, result, logger)
		if err != nil {
			return err
		}
		report.Verified = &ok
	}

	logger.Info("Writing locked netlist to %s", cfg.Output)
	if err := utils.WriteBenchFile(cfg.Output, locked); err != nil {
		return err
	}
	if cfg.Verilog != "" {
		logger.Info("Writing Verilog to %s", cfg.Verilog)
		if err := utils.WriteVerilogFile(cfg.Verilog, locked, cfg.VerilogGates); err != nil {
			return err
		}
	}
	if cfg.KeyReport != "" {
		logger.Info("Writing key report to %s", cfg.KeyReport)
		if err := utils.WriteKeyReport(cfg.KeyReport, report); err != nil {
			return err
		}
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}

	lockedTopo := circuit.NewTopology(locked)
	if err := lockedTopo.Analyze(); err != nil {
		return err
	}

	logger.Info("Locking complete")
	logger.Info("Circuit: %s", locked.Name)
	logger.Info("Primary inputs: %d (%d key inputs)", locked.NumInputs(), len(locked.KeyInputs()))
	logger.Info("Primary outputs: %d", locked.NumOutputs())
	logger.Info("Gates: %s", formatStats(locked.Stats()))
	logger.Info("Depth: %d (%d fanout points)", lockedTopo.MaxLevel, len(lockedTopo.FanoutPoints))
	logger.Info("Key bits: %d", len(result.Bits))
	logger.Info("Key: %s", result.KeyString())
	return nil
}

// checkResult proves the key correct and reports key bits that no output can observe
func checkResult(original, locked *circuit.Circuit, result *algorithm.Result, logger *utils.Logger) (bool, error) {
	key := make(map[string]bool, len(result.Bits))
	for _, bit := range result.Bits {
		key[bit.KeyInput] = bit.Value
	}
	return checkKey(original, locked, key, logger)
}

func checkKey(original, locked *circuit.Circuit, key map[string]bool, logger *utils.Logger) (bool, error) {
	cex, err := verify.CheckKey(original, locked, key)
	if err != nil {
		return false, errors.Wrap(err, "verification failed")
	}
	if cex != nil {
		logger.Error("Key does not unlock the circuit: outputs %v differ on %v", cex.Outputs, cex.Inputs)
		return false, nil
	}
	logger.Info("Verified: the key restores the original function")

	insensitive, err := verify.InsensitiveKeyBits(original, locked, key)
	if err != nil {
		return true, errors.Wrap(err, "verification failed")
	}
	if len(insensitive) > 0 {
		logger.Warning("Key bits with no effect on any output: %s", strings.Join(insensitive, ", "))
	}
	return true, nil
}

func newReport(circuitName string, cfg *config.Config, result *algorithm.Result) *utils.KeyReport {
	report := utils.NewKeyReport(circuitName, string(result.Strategy), result.Seed)
	if result.Strategy == algorithm.FaultImpactStrategy {
		report.Rounds = cfg.Rounds
	}
	report.Key = result.KeyString()
	report.Bits = make([]utils.KeyBitInfo, len(result.Bits))
	for i, bit := range result.Bits {
		value := 0
		if bit.Value {
			value = 1
		}
		report.Bits[i] = utils.KeyBitInfo{
			KeyInput: bit.KeyInput,
			Value:    value,
			Target:   bit.Target,
			Gate:     bit.Gate,
			GateType: bit.GateType.String(),
			Inverter: bit.Inverter,
		}
	}
	return report
}

func formatStats(stats map[circuit.GateType]int) string {
	types := make([]circuit.GateType, 0, len(stats))
	for gt := range stats {
		types = append(types, gt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	parts := make([]string, len(types))
	for i, gt := range types {
		parts[i] = fmt.Sprintf("%s=%d", gt, stats[gt])
	}
	return strings.Join(parts, " ")
}
