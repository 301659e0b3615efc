// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
)

type (
	// ArtifactValue records one downloaded artifact: its name, extension, and
	// the local file's last-modified timestamp in epoch milliseconds.
	ArtifactValue struct {
		Name         string `json:"name"`
		Ext          string `json:"ext"`
		LastModified int64  `json:"lastModified"`
	}

	// DependencyValue is the snapshot entry for one resolved dependency. An
	// empty Artifacts list means the dependency resolved without fetching
	// anything in this pass (pure cache hit or metadata-only resolution),
	// which is distinct from "fetched N files" for change detection.
	DependencyValue struct {
		Revision  string          `json:"revision"`
		Artifacts []ArtifactValue `json:"artifacts,omitempty"`
	}

	// Snapshot maps canonical dependency identities ("org#name;revision") to
	// their resolved state. Snapshots from consecutive polling cycles are
	// compared by key; iteration order is meaningless.
	Snapshot map[string]DependencyValue

	// Change describes one difference between two snapshots.
	Change struct {
		// Dependency is the canonical identity of the affected entry.
		Dependency string

		// Reason is a human-readable description of what changed.
		Reason string
	}
)

// Equal reports whether two snapshots describe the same resolved state.
// Artifact lists are compared in order; engines emit them deterministically
// for an unchanged graph.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for id, value := range s {
		otherValue, ok := other[id]
		if !ok {
			return false
		}
		if value.Revision != otherValue.Revision {
			return false
		}
		if !slices.Equal(value.Artifacts, otherValue.Artifacts) {
			return false
		}
	}
	return true
}

// Diff lists the differences between two snapshots, sorted by dependency
// identity. It reports added and removed dependencies, revision moves, and
// artifact-level changes.
func Diff(prev, cur Snapshot) []Change {
	var changes []Change

	for id, prevValue := range prev {
		curValue, ok := cur[id]
		if !ok {
			changes = append(changes, Change{Dependency: id, Reason: "dependency removed"})
			continue
		}
		if prevValue.Revision != curValue.Revision {
			changes = append(changes, Change{
				Dependency: id,
				Reason:     fmt.Sprintf("revision %s -> %s", prevValue.Revision, curValue.Revision),
			})
			continue
		}
		if !slices.Equal(prevValue.Artifacts, curValue.Artifacts) {
			changes = append(changes, Change{
				Dependency: id,
				Reason:     fmt.Sprintf("artifacts changed (%d -> %d entries)", len(prevValue.Artifacts), len(curValue.Artifacts)),
			})
		}
	}

	for id := range cur {
		if _, ok := prev[id]; !ok {
			changes = append(changes, Change{Dependency: id, Reason: "dependency added"})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Dependency < changes[j].Dependency })
	return changes
}

// LoadSnapshot reads a snapshot previously written by Save. A missing file is
// not an error: it returns (nil, nil) so first runs start without a baseline.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluator: read snapshot %q: %w", path, err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("evaluator: parse snapshot %q: %w", path, err)
	}
	return s, nil
}

// Save writes the snapshot as indented JSON.
func (s Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("evaluator: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("evaluator: write snapshot %q: %w", path, err)
	}
	return nil
}
