package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/dataset"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/tui"
)

// customDataSet labels runs over values given with --values.
const customDataSet = "custom"

// sequenceFlags select the values a command sorts.
type sequenceFlags struct {
	dataSet string
	size    int
	seed    int64
	values  []int
}

func (f *sequenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dataSet, "dataset", "d", "", "data set to generate (default: settings.data_set)")
	cmd.Flags().IntVarP(&f.size, "size", "n", 0, "number of values to generate")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed (default: clock)")
	cmd.Flags().IntSliceVar(&f.values, "values", nil, "explicit values to sort, e.g. 5,3,1")
}

// resolve picks the data set and size to generate. The configured size
// only applies to the configured data set.
func (f *sequenceFlags) resolve(settings config.Settings) (dataset.Type, int, error) {
	name := f.dataSet
	if name == "" {
		name = settings.DataSet
	}
	t, err := dataset.ParseType(name)
	if err != nil {
		return "", 0, err
	}
	size := f.size
	if size == 0 && name == settings.DataSet {
		size = settings.DataSize
	}
	return t, size, nil
}

// generate returns a fresh sequence and the label it is recorded under.
func (f *sequenceFlags) generate(settings config.Settings) ([]int, string, error) {
	if len(f.values) > 0 {
		return append([]int(nil), f.values...), customDataSet, nil
	}

	t, size, err := f.resolve(settings)
	if err != nil {
		return nil, "", err
	}
	seed := f.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	values, err := dataset.Generate(t, dataset.Options{Size: size, Seed: seed})
	if err != nil {
		return nil, "", err
	}
	return values, string(t), nil
}

// parseAlgorithmArg returns the algorithm named by args, or def.
func parseAlgorithmArg(args []string, def engine.Algorithm) (engine.Algorithm, error) {
	if len(args) == 0 {
		return def, nil
	}
	return engine.ParseAlgorithm(args[0])
}

// printField prints an aligned label and value.
func printField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "%-10s %v\n", label+":", value)
}

func formatElapsed(d time.Duration, hasElapsed bool) string {
	return tui.FormatElapsed(engine.Progress{Elapsed: d, HasElapsed: hasElapsed})
}

// formatFrame renders one trace line.
func formatFrame(f engine.Frame) string {
	return fmt.Sprintf("%6d  %-9s  %3d %3d  %v", f.Seq, f.Status, f.Primary, f.Secondary, f.Values)
}
