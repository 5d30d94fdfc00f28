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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	GroupVersion = "iohbench.io/v1alpha1"
	Kind         = "Experiment"
)

const (
	SuitePBO  = "PBO"
	SuiteBBOB = "BBOB"
)

const (
	AlgorithmRandomSearch = "RandomSearch"
	AlgorithmOnePlusOneEA = "OnePlusOneEA"
	AlgorithmGA           = "GA"
)

// Experiment is the file format of a benchmarking experiment: which
// algorithm runs on which problems, and how the evaluations are logged.
type Experiment struct {
	metav1.TypeMeta `json:",inline"`

	Spec ExperimentSpec `json:"spec"`
}

// ExperimentSpec defines the runs of an experiment
type ExperimentSpec struct {
	// Suite is the problem catalogue, PBO or BBOB
	Suite string `json:"suite"`

	Algorithm AlgorithmSpec `json:"algorithm"`

	// Problems is a range expression over problem ids, e.g. "1-3,8".
	// Empty selects the whole suite.
	Problems string `json:"problems,omitempty"`

	// Instances is a range expression over instance ids in [0, 100]
	Instances string `json:"instances,omitempty"`

	Dimensions []int `json:"dimensions,omitempty"`

	// Runs is the number of independent runs per problem instance
	Runs *int `json:"runs,omitempty"`

	// Budget is the maximum number of evaluations per run
	Budget *int `json:"budget,omitempty"`

	Seed *uint64 `json:"seed,omitempty"`

	// COCO logs the distance to the optimum instead of raw objective values
	COCO bool `json:"coco,omitempty"`

	Output OutputSpec `json:"output"`

	Triggers *TriggersSpec `json:"triggers,omitempty"`

	// Attributes are written into every info block
	Attributes map[string]string `json:"attributes,omitempty"`
}

// AlgorithmSpec selects a reference algorithm and its parameters
type AlgorithmSpec struct {
	Name string `json:"name"`

	// PopulationSize is used by GA
	PopulationSize *int `json:"populationSize,omitempty"`

	// MutationRate defaults to 1/n
	MutationRate *float64 `json:"mutationRate,omitempty"`

	// CrossoverRate is used by GA
	CrossoverRate *float64 `json:"crossoverRate,omitempty"`
}

// OutputSpec defines where data files are written
type OutputSpec struct {
	Directory  string `json:"directory,omitempty"`
	FolderName string `json:"folderName,omitempty"`

	AlgorithmInfo string `json:"algorithmInfo,omitempty"`

	// BufferSize is the per-channel write buffer in bytes
	BufferSize *int `json:"bufferSize,omitempty"`

	// MetricsFile receives the Prometheus counters of the experiment
	MetricsFile string `json:"metricsFile,omitempty"`

	// Plot renders a convergence chart next to every improvement channel file
	Plot bool `json:"plot,omitempty"`
}

// TriggersSpec defines which evaluations are logged
type TriggersSpec struct {
	Always bool `json:"always,omitempty"`

	// Improvement defaults to true
	Improvement *bool `json:"improvement,omitempty"`

	Interval int `json:"interval,omitempty"`

	TimePoints *TimePointsSpec `json:"timePoints,omitempty"`

	TimeRange *TimeRangeSpec `json:"timeRange,omitempty"`

	// Update logs a record whenever a dynamic attribute changes
	Update bool `json:"update,omitempty"`
}

// TimePointsSpec defines evaluation checkpoints
type TimePointsSpec struct {
	Bases            []int `json:"bases,omitempty"`
	PerDecade        int   `json:"perDecade,omitempty"`
	Explicit         []int `json:"explicit,omitempty"`
	ScaleByDimension bool  `json:"scaleByDimension,omitempty"`
}

// TimeRangeSpec is a closed range of evaluations
type TimeRangeSpec struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
