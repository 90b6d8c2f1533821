package options

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

var _ IOptions = (*OutputOptions)(nil)

// Supported output formats.
const (
	OutputLog   = "log"
	OutputTable = "table"
	OutputNone  = "none"
)

// OutputOptions selects how the agent renders snapshots locally.
type OutputOptions struct {
	Format string `json:"format" mapstructure:"format"`
}

// NewOutputOptions creates an OutputOptions with default values.
func NewOutputOptions() *OutputOptions {
	return &OutputOptions{Format: OutputLog}
}

func (o *OutputOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if !slices.Contains([]string{OutputLog, OutputTable, OutputNone}, o.Format) {
		return []error{fmt.Errorf("--output.format must be one of log, table, none; got %q", o.Format)}
	}
	return nil
}

func (o *OutputOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Format, "output.format", o.Format, "How snapshots are rendered locally: 'log', 'table' or 'none'.")
}
