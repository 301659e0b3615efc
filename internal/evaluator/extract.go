// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"fmt"
	"os"

	"ivytrigger/internal/engine"
)

// extract walks the report's dependency nodes and builds the snapshot. Nodes
// that cannot be extracted are logged with their identity and skipped; a
// single malformed node never aborts the pass. On the unexpected case of two
// nodes sharing an identity, the later one wins.
func (e *Evaluator) extract(report *engine.Report) Snapshot {
	result := make(Snapshot, len(report.Dependencies))
	for _, node := range report.Dependencies {
		value, err := dependencyValue(node)
		if err != nil {
			e.logger().Error("cannot retrieve artifacts for dependency", "dependency", node.ID.String(), "err", err)
			continue
		}
		result[node.ID.String()] = value
	}
	return result
}

// dependencyValue derives the snapshot entry for one node. The node's first
// root-module configuration is the representative configuration: if any of
// its download reports was actually fetched in this pass, descriptors are
// emitted for all reports at that configuration — not only the fetched ones —
// so a partial re-download still changes the snapshot. If nothing was
// fetched, the artifact list stays empty, which tells the trigger "resolved,
// nothing new" as opposed to "resolved, fetched N files".
func dependencyValue(node engine.DependencyNode) (DependencyValue, error) {
	if len(node.Configurations) == 0 {
		return DependencyValue{}, fmt.Errorf("dependency node has no root-module configurations")
	}
	downloads := node.Downloads[node.Configurations[0]]

	anyDownloaded := false
	for _, d := range downloads {
		if d.Downloaded {
			anyDownloaded = true
			break
		}
	}

	var artifacts []ArtifactValue
	if anyDownloaded {
		for _, d := range downloads {
			info, err := os.Stat(d.LocalFile)
			if err != nil {
				return DependencyValue{}, fmt.Errorf("stat local artifact %q: %w", d.LocalFile, err)
			}
			artifacts = append(artifacts, ArtifactValue{
				Name:         d.Name,
				Ext:          d.Ext,
				LastModified: info.ModTime().UnixMilli(),
			})
		}
	}

	return DependencyValue{Revision: node.ResolvedRevision, Artifacts: artifacts}, nil
}
