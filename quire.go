// Package quire assembles a manuscript from text fragments listed in a manifest.
package quire

import (
	"context"

	"github.com/n2code/quire/internal/assembly"
	"github.com/n2code/quire/internal/manifest"
)

type Quire interface {

	// Manifest reads and parses the manifest file as it is on disk right now.
	Manifest() (*manifest.Manifest, error)

	// Assemble resolves all enabled manifest entries and concatenates them in order.
	// Nothing is written. Either the complete document is returned or an error naming the first offending entry.
	Assemble(ctx context.Context) (*assembly.Document, error)

	// Build assembles the manuscript and writes it to the configured output path, followed by the build record.
	// Unless in thorough mode an output identical to the recorded one is not rewritten.
	// If assembly fails neither output nor record are touched.
	Build(ctx context.Context) (*BuildResult, error)

	// Status classifies every manifest entry and every fragment in the store, see FragmentStatus.
	Status() (*StatusReport, error)

	// PrintTree prints the manifest hierarchy with status indicators, followed by all unreferenced fragments.
	// If onlyEnabled is set disabled entries and unreferenced fragments are omitted.
	PrintTree(onlyEnabled bool) error

	// PrintStatus lists the Status results grouped by status.
	PrintStatus() error

	// PrintSequence lists the enabled fragments in output order along with their manifest positions.
	PrintSequence() error

	// Watch builds once and then again whenever the manifest or a fragment changes, until the context is done.
	// Failed builds are reported to onBuild and do not end watching.
	Watch(ctx context.Context, onBuild func(*BuildResult, error)) error
}
