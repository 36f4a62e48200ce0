// File: lixenwraith/argtree/cmd/argtree/main.go
// Demo program resolving a training configuration into arguments.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/lixenwraith/argtree"
)

// Optimizer selects the optimizer subcommand.
type Optimizer interface{ optimizer() }

// Adam configures the Adam optimizer.
type Adam struct {
	argtree.Command `name:"adam" help:"Adam with decoupled weight decay"`
	argtree.Frozen

	LearningRate float64    `arg:"lr" default:"0.001" help:"step size"`
	Betas        [2]float64 `help:"moment decay rates"`
}

// SGD configures plain stochastic gradient descent.
type SGD struct {
	argtree.Command `name:"sgd" help:"stochastic gradient descent"`
	argtree.Frozen

	LearningRate float64 `arg:"lr" default:"0.01" help:"step size"`
	Momentum     float64 `default:"0" help:"momentum factor"`
}

func (Adam) optimizer() {}
func (SGD) optimizer() {}

// Data describes the dataset.
type Data struct {
	Path      string `arg:"path,positional" help:"dataset location"`
	BatchSize int    `default:"32" help:"examples per step"`
	Shuffle   bool   `help:"shuffle between epochs"`
}

// Train is the top-level configuration.
type Train struct {
	Data      Data
	Epochs    int
	Timeout   time.Duration `help:"abort after this long, 0 for none"`
	Verbose   bool          `help:"enable debug logging"`
	Optimizer Optimizer     `arg:"optimizer" help:"optimizer to use"`
	Seed      int           `arg:"seed,fixed"`
}

// defaultTrain is the baseline configuration. Fields set here override the
// default tags, which only apply where no instance value exists.
func defaultTrain() Train {
	return Train{
		Data:      Data{BatchSize: 32},
		Epochs:    10,
		Optimizer: Adam{LearningRate: 0.001, Betas: [2]float64{0.9, 0.999}},
		Seed:      42,
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the program logic so it can be exercised from tests.
func run(outW io.Writer, args []string) error {
	reflector := argtree.NewReflector()
	if err := argtree.RegisterUnion[Optimizer](reflector, Adam{}, SGD{}); err != nil {
		return err
	}

	schema, err := argtree.NewBuilder().
		WithName("train").
		WithReflector(reflector).
		WithDefaults(defaultTrain()).
		WithFileDiscovery(argtree.DefaultDiscoveryOptions("train")).
		WithArgs(args).
		WithValidator(func(r *argtree.Result) error {
			epochs, err := r.Int64("epochs")
			if err != nil {
				return err
			}
			if epochs <= 0 {
				return fmt.Errorf("epochs must be positive, got %d", epochs)
			}
			return nil
		}).
		Build()
	if err != nil {
		return err
	}

	res, err := schema.Collect(schema.Args())
	var helpErr *argtree.HelpError
	if errors.As(err, &helpErr) {
		fmt.Fprint(outW, helpErr.Parser.Format())
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w\n\n%s", err, schema.Help())
	}

	if verbose, _ := res.Bool("verbose"); verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		slog.Debug("resolved tree", "leaves", len(schema.Tree.Root.Leaves()), "file", schema.File)
	}

	names := make([]string, 0, len(res.Values))
	for name := range res.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	if tag, ok := res.Subcommand("optimizer"); ok {
		fmt.Fprintf(outW, "optimizer: %s\n", tag)
	}
	for _, name := range names {
		fmt.Fprintf(outW, "%s = %v\n", name, res.Values[name])
	}
	return nil
}
