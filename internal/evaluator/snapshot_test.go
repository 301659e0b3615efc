// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshotEqual(t *testing.T) {
	t.Parallel()

	base := Snapshot{
		"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 100}}},
		"org#lib;2.0": {Revision: "2.0"},
	}

	tests := []struct {
		name  string
		other Snapshot
		want  bool
	}{
		{
			name: "identical snapshots are equal",
			other: Snapshot{
				"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 100}}},
				"org#lib;2.0": {Revision: "2.0"},
			},
			want: true,
		},
		{
			name: "different size is unequal",
			other: Snapshot{
				"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 100}}},
			},
			want: false,
		},
		{
			name: "different key is unequal",
			other: Snapshot{
				"org#mod;1.0":   {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 100}}},
				"org#other;2.0": {Revision: "2.0"},
			},
			want: false,
		},
		{
			name: "different revision is unequal",
			other: Snapshot{
				"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 100}}},
				"org#lib;2.0": {Revision: "2.1"},
			},
			want: false,
		},
		{
			name: "different artifact timestamp is unequal",
			other: Snapshot{
				"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 200}}},
				"org#lib;2.0": {Revision: "2.0"},
			},
			want: false,
		},
		{
			name: "empty artifacts vs populated artifacts is unequal",
			other: Snapshot{
				"org#mod;1.0": {Revision: "1.0"},
				"org#lib;2.0": {Revision: "2.0"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotEqualEmpty(t *testing.T) {
	t.Parallel()

	if !(Snapshot{}).Equal(Snapshot{}) {
		t.Error("two empty snapshots should be equal")
	}
	if (Snapshot{"a": {Revision: "1"}}).Equal(Snapshot{}) {
		t.Error("non-empty and empty snapshots should be unequal")
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	prev := Snapshot{
		"org#kept;1.0":    {Revision: "1.0"},
		"org#moved;1.0":   {Revision: "1.0"},
		"org#removed;1.0": {Revision: "1.0"},
		"org#fetched;1.0": {Revision: "1.0"},
	}
	cur := Snapshot{
		"org#kept;1.0":    {Revision: "1.0"},
		"org#moved;1.0":   {Revision: "1.1"},
		"org#added;3.0":   {Revision: "3.0"},
		"org#fetched;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "fetched", Ext: "jar", LastModified: 42}}},
	}

	changes := Diff(prev, cur)

	want := []Change{
		{Dependency: "org#added;3.0", Reason: "dependency added"},
		{Dependency: "org#fetched;1.0", Reason: "artifacts changed (0 -> 1 entries)"},
		{Dependency: "org#moved;1.0", Reason: "revision 1.0 -> 1.1"},
		{Dependency: "org#removed;1.0", Reason: "dependency removed"},
	}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("Diff = %v, want %v", changes, want)
	}
}

func TestDiffNoChanges(t *testing.T) {
	t.Parallel()

	s := Snapshot{"org#mod;1.0": {Revision: "1.0"}}
	if changes := Diff(s, s); len(changes) != 0 {
		t.Errorf("Diff of identical snapshots = %v, want none", changes)
	}
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	original := Snapshot{
		"org#mod;1.0": {Revision: "1.0", Artifacts: []ArtifactValue{{Name: "mod", Ext: "jar", LastModified: 1234}}},
		"org#lib;2.0": {Revision: "2.0"},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !original.Equal(loaded) {
		t.Errorf("loaded snapshot %v differs from saved %v", loaded, original)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	t.Parallel()

	s, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("missing snapshot should not be an error, got: %v", err)
	}
	if s != nil {
		t.Errorf("missing snapshot should yield nil, got %v", s)
	}
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSnapshot(path); err == nil {
		t.Fatal("expected error for corrupt snapshot, got nil")
	}
}
