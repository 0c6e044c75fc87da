package maincmd

import "github.com/caarlos0/env/v6"

// runConfig is process-wide tuning for the run/project commands, pulled
// from the environment rather than CLI flags: how many bytecode steps the
// toy interpreter runs before concluding a loop was miscompiled, the only
// knob a bare test harness needs that isn't already a source file path.
type runConfig struct {
	MaxSteps int `env:"MAX_STEPS" envDefault:"10000000"`
}

func loadRunConfig() (runConfig, error) {
	var c runConfig
	opts := env.Options{Prefix: "ORUS_"}
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return runConfig{}, err
	}
	return c, nil
}
