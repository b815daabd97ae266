package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/export"
	"github.com/matzehuels/stackgraph/pkg/loader"
)

// inputFormats are the accepted values of --input.
var inputFormats = []string{"auto", string(loader.FormatLiteral), string(loader.FormatPprof)}

// sourceFlags are the profile decoding flags shared by top and export.
type sourceFlags struct {
	input       string
	sampleType  string
	threadLabel string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "auto", "profile format: auto, literal, pprof")
	cmd.Flags().StringVar(&f.sampleType, "sample-type", "", "pprof sample type counted as calls (default: the profile's default)")
	cmd.Flags().StringVar(&f.threadLabel, "thread-label", "", "pprof label naming the thread (default \"thread\")")
}

// options validates the flags against defaults taken from the config.
func (f *sourceFlags) options(defaults loader.Options) (loader.Options, error) {
	opts := defaults
	if err := errors.ValidateFormat(f.input, inputFormats); err != nil {
		return opts, err
	}
	if input := strings.ToLower(f.input); input != "auto" {
		opts.Format = loader.Format(input)
	}
	if f.sampleType != "" {
		if err := errors.ValidateWeightName(f.sampleType); err != nil {
			return opts, err
		}
		opts.SampleType = f.sampleType
	}
	if f.threadLabel != "" {
		opts.ThreadLabel = f.threadLabel
	}
	return opts, nil
}

// exportFlags are the payload flags shared by export and serve.
type exportFlags struct {
	maxDegree     int
	stackFraction float64
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxDegree, "max-degree", export.DefaultMaxDegree, "drop nodes with more edges than this (negative disables)")
	cmd.Flags().Float64Var(&f.stackFraction, "stack-fraction", 0, "omit stacks below this share of all calls")
}

// apply overrides opts with the flags the user set.
func (f *exportFlags) apply(cmd *cobra.Command, opts *export.Options) error {
	if cmd.Flags().Changed("max-degree") {
		opts.MaxDegree = f.maxDegree
	}
	if cmd.Flags().Changed("stack-fraction") {
		if f.stackFraction < 0 || f.stackFraction > 1 {
			return errors.New(errors.ErrCodeInvalidInput, "--stack-fraction %g not in [0, 1]", f.stackFraction)
		}
		opts.StackFraction = f.stackFraction
	}
	return nil
}
