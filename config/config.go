// varcomp: a tool for comparing, reconciling, and filtering variant call
// sets produced by multiple callers, technologies, or pipeline runs.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/varcomp/varcomp/blob/master/LICENSE.txt>.

// Package config loads experiment descriptions from YAML files and
// turns them into the comparison types of the compare package.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/varcomp/varcomp/compare"
	"github.com/varcomp/varcomp/sites"
)

type (
	// A Config describes one comparison experiment: the sample, the
	// call sets under comparison, an optional positional annotation
	// file, and the finalizers to run after the comparison.
	Config struct {
		Sample           string            `yaml:"sample"`
		Annotations      string            `yaml:"annotations"`
		CallSets         []CallSetConfig   `yaml:"callsets"`
		FinalizerConfigs []FinalizerConfig `yaml:"finalizers"`
	}

	// A CallSetConfig describes one source of variant calls.
	CallSetConfig struct {
		Name             string   `yaml:"name"`
		Files            []string `yaml:"files"`
		Technology       string   `yaml:"technology"`
		Caller           string   `yaml:"caller"`
		FPFreq           float64  `yaml:"fp-freq"`
		GradingReference bool     `yaml:"grading-reference"`
	}

	// A FinalizerConfig describes one post-comparison finalizer.
	FinalizerConfig struct {
		Method string       `yaml:"method"`
		Target string       `yaml:"target"`
		Params ParamsConfig `yaml:"params"`
	}

	// ParamsConfig carries the filters and classifier settings of a
	// finalizer.
	ParamsConfig struct {
		KeepFilter     string         `yaml:"keep-filter"`
		ValidateFilter string         `yaml:"validate-filter"`
		Annotations    []string       `yaml:"annotations"`
		Classifiers    []string       `yaml:"classifiers"`
		MinCScore      float64        `yaml:"min-cscore"`
		Support        []string       `yaml:"support"`
		Validate       ValidateConfig `yaml:"validate"`
	}

	// A ValidateConfig describes how the to-validate subset is
	// selected.
	ValidateConfig struct {
		Approach  string       `yaml:"approach"`
		Count     int          `yaml:"count"`
		TopMetric MetricConfig `yaml:"top-metric"`
		Seed      int64        `yaml:"seed"`
	}

	// A MetricConfig names a ranking metric with an optional sign
	// modifier.
	MetricConfig struct {
		Name string  `yaml:"name"`
		Mod  float64 `yaml:"mod"`
	}
)

// Load reads and validates an experiment configuration.
func Load(filename string) (cfg *Config, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); nerr != nil && err == nil {
			cfg, err = nil, nerr
		}
	}()
	cfg = new(Config)
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("cannot decode configuration %v: %v", filename, err)
	}
	if err := cfg.validate(filename); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate(filename string) error {
	if cfg.Sample == "" {
		return fmt.Errorf("configuration %v names no sample", filename)
	}
	if len(cfg.CallSets) < 2 {
		return fmt.Errorf("configuration %v needs at least two call sets", filename)
	}
	seen := make(map[string]bool)
	for _, cs := range cfg.CallSets {
		if cs.Name == "" {
			return fmt.Errorf("configuration %v contains a call set without a name", filename)
		}
		if seen[cs.Name] {
			return fmt.Errorf("configuration %v repeats the call set name %v", filename, cs.Name)
		}
		seen[cs.Name] = true
		if len(cs.Files) == 0 {
			return fmt.Errorf("call set %v in configuration %v names no files", cs.Name, filename)
		}
	}
	for _, fin := range cfg.FinalizerConfigs {
		if fin.Target != "" && !seen[fin.Target] {
			return fmt.Errorf("finalizer target %v in configuration %v names no call set", fin.Target, filename)
		}
		for _, name := range fin.Params.Support {
			if !seen[name] {
				return fmt.Errorf("support call set %v in configuration %v does not exist", name, filename)
			}
		}
	}
	return nil
}

// Experiment turns the configuration into a comparison experiment,
// loading the positional annotation index when one is configured.
func (cfg *Config) Experiment() (*compare.Experiment, error) {
	x := &compare.Experiment{Sample: cfg.Sample}
	for _, cs := range cfg.CallSets {
		x.CallSets = append(x.CallSets, &compare.CallSet{
			Name:             cs.Name,
			Files:            cs.Files,
			Technology:       cs.Technology,
			Caller:           cs.Caller,
			FPFreq:           cs.FPFreq,
			GradingReference: cs.GradingReference,
		})
	}
	if cfg.Annotations != "" {
		index, err := sites.FromFile(cfg.Annotations)
		if err != nil {
			return nil, err
		}
		x.Annotations = index
	}
	return x, nil
}

// Finalizer turns one finalizer configuration into its compare-level
// counterpart.
func (fin *FinalizerConfig) Finalizer() *compare.Finalizer {
	params := compare.FinalizerParams{
		KeepFilter:     fin.Params.KeepFilter,
		ValidateFilter: fin.Params.ValidateFilter,
		Annotations:    fin.Params.Annotations,
		Classifiers:    fin.Params.Classifiers,
		MinCScore:      fin.Params.MinCScore,
		Support:        fin.Params.Support,
		Validate: compare.ValidateSpec{
			Approach: fin.Params.Validate.Approach,
			Count:    fin.Params.Validate.Count,
			Seed:     fin.Params.Validate.Seed,
		},
	}
	if fin.Params.Validate.TopMetric.Name != "" {
		params.Validate.TopMetrics = []compare.MetricSpec{{
			Name: fin.Params.Validate.TopMetric.Name,
			Mod:  fin.Params.Validate.TopMetric.Mod,
		}}
	}
	return &compare.Finalizer{
		Method: fin.Method,
		Target: fin.Target,
		Params: params,
	}
}

// Finalizers turns all finalizer configurations into their
// compare-level counterparts.
func (cfg *Config) Finalizers() []*compare.Finalizer {
	finalizers := make([]*compare.Finalizer, len(cfg.FinalizerConfigs))
	for i := range cfg.FinalizerConfigs {
		finalizers[i] = cfg.FinalizerConfigs[i].Finalizer()
	}
	return finalizers
}
