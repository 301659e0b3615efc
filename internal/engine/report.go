// SPDX-License-Identifier: MPL-2.0

package engine

import "fmt"

type (
	// ModuleID identifies a module revision (Ivy's organisation/name/revision
	// triple).
	ModuleID struct {
		Organisation string
		Name         string
		Revision     string
	}

	// ArtifactDownload is one artifact entry from a configuration's download
	// report.
	ArtifactDownload struct {
		// Name is the artifact name without extension.
		Name string

		// Ext is the artifact extension ("jar", "zip", ...).
		Ext string

		// Downloaded reports whether this pass actually fetched the artifact,
		// as opposed to finding it in the cache or skipping it.
		Downloaded bool

		// LocalFile is the path of the artifact in the resolver cache. It may
		// be empty for artifacts that were never retrieved.
		LocalFile string
	}

	// DependencyNode is one resolved module in a Report.
	DependencyNode struct {
		// ID is the node's canonical identity as requested by the descriptor.
		ID ModuleID

		// ResolvedRevision is the revision the resolver settled on. It can
		// differ from ID.Revision when the descriptor used a dynamic revision.
		ResolvedRevision string

		// Configurations lists the root-module configurations this node
		// participates in, in resolver order. The first entry is the
		// representative configuration for download inspection.
		Configurations []string

		// Downloads holds the per-configuration download reports. All
		// artifacts of the node appear in each configuration it belongs to,
		// whether or not they were fetched in this pass.
		Downloads map[string][]ArtifactDownload
	}

	// Report is the outcome of one resolution pass. It is read-only after
	// creation.
	Report struct {
		// Problems carries the engine's accumulated error and warning
		// messages. A non-empty Problems does not invalidate Dependencies;
		// resolvers routinely report recoverable trouble here.
		Problems []string

		// Dependencies lists the resolved nodes in resolver order. The order
		// carries no meaning; consumers compare by identity.
		Dependencies []DependencyNode
	}
)

// String renders the identity in Ivy's canonical "org#name;revision" form.
// This is the stable key used for snapshot entries.
func (id ModuleID) String() string {
	return fmt.Sprintf("%s#%s;%s", id.Organisation, id.Name, id.Revision)
}

// HasProblems reports whether the resolution pass accumulated any problem
// messages.
func (r *Report) HasProblems() bool {
	return len(r.Problems) > 0
}
