// Package config loads optional threshold overrides for detectors, and
// additional contradiction rules for the engine, from a YAML file. There are
// no weight overrides. Absence or malformedness is never
// fatal — an unreadable or invalid config file is logged and the built-in
// defaults documented throughout internal/detector are used instead,
// following the same "environment unreadable -> treat as unknown" policy
// as every /proc and /sys read in this module.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// EnvVar is the variable consulted for an optional config file path.
const EnvVar = "ANTIDEBUG_CONFIG"

// Detectors holds per-detector tunables. Zero values mean "use the
// specification's built-in constant"; detectors must treat a zero override
// field as absent, never as an explicit zero weight.
type Detectors struct {
	Timing        TimingConfig        `yaml:"timing"`
	Jitter        JitterConfig        `yaml:"jitter"`
	HardwareBreak HardwareBreakConfig `yaml:"hardware_breakpoint"`
	RecordReplay  RecordReplayConfig  `yaml:"record_replay"`
	Rules         []RuleConfig        `yaml:"rules"`
}

// RuleConfig describes one additional correlation rule to register with
// the engine at startup, on top of the built-in "timing-without-tracer"
// rule. SourceA and SourceB name evidence.Source values (e.g. "Timing",
// "Ptrace") by their String() form; Expr is a govaluate boolean expression
// over the same names plus "Contradictions". See engine.RegisterRule.
type RuleConfig struct {
	Name        string `yaml:"name"`
	Expr        string `yaml:"expr"`
	SourceA     string `yaml:"source_a"`
	SourceB     string `yaml:"source_b"`
	Description string `yaml:"description"`
}

type TimingConfig struct {
	OverheadHighMeanCycles   uint64 `yaml:"overhead_high_mean_cycles"`
	OverheadMediumMeanCycles uint64 `yaml:"overhead_medium_mean_cycles"`
	ExecHighMeanCycles       uint64 `yaml:"exec_high_mean_cycles"`
}

type JitterConfig struct {
	AmplificationHighMeanCycles uint64 `yaml:"amplification_high_mean_cycles"`
	NopHighMeanCycles           uint64 `yaml:"nop_high_mean_cycles"`
}

type HardwareBreakConfig struct {
	TimingHighMeanCycles uint64 `yaml:"timing_high_mean_cycles"`
}

type RecordReplayConfig struct {
	TSCRatioLowBound  float64 `yaml:"tsc_ratio_low_bound"`
	TSCRatioHighBound float64 `yaml:"tsc_ratio_high_bound"`
}

// Load reads and parses the YAML file at path. Any error (missing file,
// permission denied, malformed YAML) is returned to the caller, which is
// expected to log it and fall back to the zero Detectors (built-in defaults
// everywhere) — Load itself never
// panics and never applies partial state on error.
func Load(path string) (Detectors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Detectors{}, err
	}
	var cfg Detectors
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Detectors{}, err
	}
	return cfg, nil
}

// LoadFromEnv looks up EnvVar and loads the referenced file if set. It
// returns the zero Detectors (meaning "use built-in defaults everywhere")
// when the variable is unset, and logs nothing itself — callers decide how
// to report a load failure.
func LoadFromEnv() (Detectors, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Detectors{}, nil
	}
	return Load(path)
}
