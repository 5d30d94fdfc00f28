package app

import (
	"os"

	"github.com/spf13/pflag"
	logsapi "k8s.io/component-base/logs/api/v1"

	"github.com/mihai-snyk/iohbench/apis/experiment/v1alpha1"
)

// Options holds the command line flags. Flags that are set override the
// values of the experiment file.
type Options struct {
	ConfigFile string

	Suite      string
	Algorithm  string
	Problems   string
	Instances  string
	Dimensions []int
	Runs       int
	Budget     int
	Seed       uint64
	COCO       bool

	OutputDirectory string
	FolderName      string
	MetricsFile     string
	Plot            bool

	Logs *logsapi.LoggingConfiguration
}

func NewOptions() *Options {
	return &Options{Logs: logsapi.NewLoggingConfiguration()}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "", "Path to an Experiment file (YAML or JSON).")
	fs.StringVar(&o.Suite, "suite", "", "Problem suite: PBO or BBOB.")
	fs.StringVar(&o.Algorithm, "algorithm", "", "Algorithm: RandomSearch, OnePlusOneEA or GA.")
	fs.StringVar(&o.Problems, "problems", "", `Problem ids, e.g. "1-3,8". Empty selects the whole suite.`)
	fs.StringVar(&o.Instances, "instances", "", `Instance ids in [0, 100], e.g. "1-5".`)
	fs.IntSliceVar(&o.Dimensions, "dimensions", nil, "Comma separated problem dimensions.")
	fs.IntVar(&o.Runs, "runs", 0, "Independent runs per problem instance.")
	fs.IntVar(&o.Budget, "budget", 0, "Maximum evaluations per run.")
	fs.Uint64Var(&o.Seed, "seed", 0, "Seed of the algorithm random streams.")
	fs.BoolVar(&o.COCO, "coco", false, "Log distances to the optimum instead of raw values.")
	fs.StringVar(&o.OutputDirectory, "output", "", "Directory the data folder is created in.")
	fs.StringVar(&o.FolderName, "folder", "", "Name of the data folder, suffixed with -N if it exists.")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "Write Prometheus counters to this file when done.")
	fs.BoolVar(&o.Plot, "plot", false, "Render convergence charts next to the improvement files.")
	logsapi.AddFlags(o.Logs, fs)
}

// Experiment reads the experiment file, if any, applies the flags that were
// set, and returns the defaulted and validated result.
func (o *Options) Experiment(fs *pflag.FlagSet) (*v1alpha1.Experiment, error) {
	obj := &v1alpha1.Experiment{}
	if o.ConfigFile != "" {
		data, err := os.ReadFile(o.ConfigFile)
		if err != nil {
			return nil, err
		}
		if obj, err = v1alpha1.Unmarshal(data); err != nil {
			return nil, err
		}
	}

	spec := &obj.Spec
	if fs.Changed("suite") {
		spec.Suite = o.Suite
	}
	if fs.Changed("algorithm") {
		spec.Algorithm.Name = o.Algorithm
	}
	if fs.Changed("problems") {
		spec.Problems = o.Problems
	}
	if fs.Changed("instances") {
		spec.Instances = o.Instances
	}
	if fs.Changed("dimensions") {
		spec.Dimensions = o.Dimensions
	}
	if fs.Changed("runs") {
		spec.Runs = &o.Runs
	}
	if fs.Changed("budget") {
		spec.Budget = &o.Budget
	}
	if fs.Changed("seed") {
		spec.Seed = &o.Seed
	}
	if fs.Changed("coco") {
		spec.COCO = o.COCO
	}
	if fs.Changed("output") {
		spec.Output.Directory = o.OutputDirectory
	}
	if fs.Changed("folder") {
		spec.Output.FolderName = o.FolderName
	}
	if fs.Changed("metrics-file") {
		spec.Output.MetricsFile = o.MetricsFile
	}
	if fs.Changed("plot") {
		spec.Output.Plot = o.Plot
	}

	v1alpha1.SetDefaults_Experiment(obj)
	if errs := v1alpha1.ValidateExperiment(obj); len(errs) > 0 {
		return nil, errs.ToAggregate()
	}
	return obj, nil
}
