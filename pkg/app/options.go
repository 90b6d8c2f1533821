package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options of every command.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped into named sections.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from the parsed values.
	Complete() error

	// Validate checks the options and aggregates every problem found.
	Validate() error
}
