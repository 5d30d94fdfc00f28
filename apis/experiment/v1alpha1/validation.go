/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"
)

var algorithmSuites = map[string][]string{
	AlgorithmRandomSearch: {SuitePBO, SuiteBBOB},
	AlgorithmOnePlusOneEA: {SuitePBO},
	AlgorithmGA:           {SuiteBBOB},
}

// ValidateExperiment checks a defaulted Experiment.
func ValidateExperiment(obj *Experiment) field.ErrorList {
	var allErrs field.ErrorList
	if obj.APIVersion != GroupVersion {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("apiVersion"), obj.APIVersion, []string{GroupVersion}))
	}
	if obj.Kind != Kind {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("kind"), obj.Kind, []string{Kind}))
	}
	return append(allErrs, validateSpec(&obj.Spec, field.NewPath("spec"))...)
}

func validateSpec(spec *ExperimentSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList

	if spec.Suite != SuitePBO && spec.Suite != SuiteBBOB {
		allErrs = append(allErrs, field.NotSupported(path.Child("suite"), spec.Suite, []string{SuitePBO, SuiteBBOB}))
	}
	allErrs = append(allErrs, validateAlgorithm(&spec.Algorithm, spec.Suite, path.Child("algorithm"))...)

	for i, d := range spec.Dimensions {
		if d < 1 {
			allErrs = append(allErrs, field.Invalid(path.Child("dimensions").Index(i), d, "must be positive"))
		}
	}
	if spec.Runs != nil && *spec.Runs < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("runs"), *spec.Runs, "must be positive"))
	}
	if spec.Budget != nil && *spec.Budget < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("budget"), *spec.Budget, "must be positive"))
	}
	if b := spec.Output.BufferSize; b != nil && *b < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("output", "bufferSize"), *b, "must not be negative"))
	}
	if spec.Triggers != nil {
		allErrs = append(allErrs, validateTriggers(spec.Triggers, path.Child("triggers"))...)
	}
	return allErrs
}

func validateAlgorithm(alg *AlgorithmSpec, suite string, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	suites, ok := algorithmSuites[alg.Name]
	if !ok {
		return append(allErrs, field.NotSupported(path.Child("name"), alg.Name,
			[]string{AlgorithmRandomSearch, AlgorithmOnePlusOneEA, AlgorithmGA}))
	}
	supported := false
	for _, s := range suites {
		supported = supported || s == suite
	}
	if !supported {
		allErrs = append(allErrs, field.Invalid(path.Child("name"), alg.Name, fmt.Sprintf("cannot run on suite %q", suite)))
	}
	if p := alg.PopulationSize; p != nil && *p < 2 {
		allErrs = append(allErrs, field.Invalid(path.Child("populationSize"), *p, "must be at least 2"))
	}
	if r := alg.MutationRate; r != nil && (*r < 0 || *r > 1) {
		allErrs = append(allErrs, field.Invalid(path.Child("mutationRate"), *r, "must be in [0, 1]"))
	}
	if r := alg.CrossoverRate; r != nil && (*r < 0 || *r > 1) {
		allErrs = append(allErrs, field.Invalid(path.Child("crossoverRate"), *r, "must be in [0, 1]"))
	}
	return allErrs
}

func validateTriggers(t *TriggersSpec, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if t.Interval < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("interval"), t.Interval, "must not be negative"))
	}
	if tp := t.TimePoints; tp != nil {
		if tp.PerDecade < 0 {
			allErrs = append(allErrs, field.Invalid(path.Child("timePoints", "perDecade"), tp.PerDecade, "must not be negative"))
		}
		for i, b := range tp.Bases {
			if b < 1 {
				allErrs = append(allErrs, field.Invalid(path.Child("timePoints", "bases").Index(i), b, "must be positive"))
			}
		}
	}
	if r := t.TimeRange; r != nil && (r.Start < 1 || r.Start > r.End) {
		allErrs = append(allErrs, field.Invalid(path.Child("timeRange"), fmt.Sprintf("[%d, %d]", r.Start, r.End),
			"start must be positive and not after end"))
	}
	return allErrs
}

// Load reads, defaults and validates an Experiment file. Unknown fields are
// rejected.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses YAML or JSON into a defaulted, validated Experiment.
func Decode(data []byte) (*Experiment, error) {
	obj, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	SetDefaults_Experiment(obj)
	if errs := ValidateExperiment(obj); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return obj, nil
}

// Unmarshal strictly parses YAML or JSON without defaulting or validating.
func Unmarshal(data []byte) (*Experiment, error) {
	obj := &Experiment{}
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return nil, fmt.Errorf("decoding experiment: %w", err)
	}
	return obj, nil
}
