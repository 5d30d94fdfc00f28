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
	"k8s.io/utils/ptr"
)

var (
	DefaultInstances      = "1"
	DefaultDimensions     = []int{16}
	DefaultRuns           = 1
	DefaultBudget         = 10000
	DefaultSeed           = uint64(1)
	DefaultPopulationSize = 20
	DefaultCrossoverRate  = 0.8
	DefaultOutputDir      = "."
	DefaultFolderName     = "ioh_data"
)

// SetDefaults_Experiment fills every unset optional field.
func SetDefaults_Experiment(obj *Experiment) {
	if obj.APIVersion == "" {
		obj.APIVersion = GroupVersion
	}
	if obj.Kind == "" {
		obj.Kind = Kind
	}

	spec := &obj.Spec
	if spec.Instances == "" {
		spec.Instances = DefaultInstances
	}
	if len(spec.Dimensions) == 0 {
		spec.Dimensions = append([]int(nil), DefaultDimensions...)
	}
	if spec.Runs == nil {
		spec.Runs = ptr.To(DefaultRuns)
	}
	if spec.Budget == nil {
		spec.Budget = ptr.To(DefaultBudget)
	}
	if spec.Seed == nil {
		spec.Seed = ptr.To(DefaultSeed)
	}
	if spec.Algorithm.Name == AlgorithmGA {
		if spec.Algorithm.PopulationSize == nil {
			spec.Algorithm.PopulationSize = ptr.To(DefaultPopulationSize)
		}
		if spec.Algorithm.CrossoverRate == nil {
			spec.Algorithm.CrossoverRate = ptr.To(DefaultCrossoverRate)
		}
	}

	if spec.Output.Directory == "" {
		spec.Output.Directory = DefaultOutputDir
	}
	if spec.Output.FolderName == "" {
		spec.Output.FolderName = DefaultFolderName
	}

	if spec.Triggers == nil {
		spec.Triggers = &TriggersSpec{}
	}
	if spec.Triggers.Improvement == nil {
		spec.Triggers.Improvement = ptr.To(true)
	}
}
