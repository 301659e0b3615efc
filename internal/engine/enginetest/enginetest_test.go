// SPDX-License-Identifier: MPL-2.0

package enginetest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ivytrigger/internal/engine"
)

const fixtureTOML = `
problems = ["unresolved dependency: org#gone;9.9"]

[[dependency]]
organisation = "org.apache"
name = "commons-lang"
revision = "latest.release"
resolved = "2.6"
configurations = ["default", "runtime"]

[[dependency.download]]
configuration = "default"
name = "commons-lang"
ext = "jar"
downloaded = true
file = "/cache/commons-lang-2.6.jar"

[[dependency]]
organisation = "com.example"
name = "widget"
revision = "1.0"
configurations = ["default"]
`

func TestLoadReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.toml")
	if err := os.WriteFile(path, []byte(fixtureTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}

	if !reflect.DeepEqual(report.Problems, []string{"unresolved dependency: org#gone;9.9"}) {
		t.Errorf("problems = %v", report.Problems)
	}
	if len(report.Dependencies) != 2 {
		t.Fatalf("dependencies = %d, want 2", len(report.Dependencies))
	}

	lang := report.Dependencies[0]
	if lang.ID.String() != "org.apache#commons-lang;latest.release" {
		t.Errorf("identity = %q", lang.ID.String())
	}
	if lang.ResolvedRevision != "2.6" {
		t.Errorf("resolved revision = %q, want 2.6", lang.ResolvedRevision)
	}
	downloads := lang.Downloads["default"]
	if len(downloads) != 1 || !downloads[0].Downloaded || downloads[0].LocalFile != "/cache/commons-lang-2.6.jar" {
		t.Errorf("downloads = %+v", downloads)
	}

	// Omitted "resolved" defaults to the requested revision.
	widget := report.Dependencies[1]
	if widget.ResolvedRevision != "1.0" {
		t.Errorf("resolved revision = %q, want 1.0", widget.ResolvedRevision)
	}
}

func TestLoadReportMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadReport(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing fixture, got nil")
	}
}

func TestResolveRecordsAndScripts(t *testing.T) {
	t.Parallel()

	report := &engine.Report{
		Dependencies: []engine.DependencyNode{
			{
				ID:             engine.ModuleID{Organisation: "org", Name: "mod", Revision: "1.0"},
				Configurations: []string{"default"},
				Downloads: map[string][]engine.ArtifactDownload{
					"default": {{Name: "mod", Ext: "jar", Downloaded: true}},
				},
			},
		},
	}
	fake := &Engine{Report: report}

	var events []string
	fake.AttachLogger(engine.SinkFunc(func(level engine.LogLevel, msg string) {
		events = append(events, level.String()+": "+msg)
	}))

	got, err := fake.Resolve(context.Background(), "ivy.xml", engine.ResolveOptions{DownloadArtifacts: true})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != report {
		t.Error("download pass should return the scripted report unchanged")
	}
	if fake.ResolveCalls != 1 || fake.LastDescriptor != "ivy.xml" {
		t.Errorf("recorded calls=%d descriptor=%q", fake.ResolveCalls, fake.LastDescriptor)
	}
	if len(events) == 0 {
		t.Error("expected sink events during Resolve")
	}
}

func TestResolveClearsDownloadsForMetadataPass(t *testing.T) {
	t.Parallel()

	fake := &Engine{
		Report: &engine.Report{
			Dependencies: []engine.DependencyNode{
				{
					ID:             engine.ModuleID{Organisation: "org", Name: "mod", Revision: "1.0"},
					Configurations: []string{"default"},
					Downloads: map[string][]engine.ArtifactDownload{
						"default": {{Name: "mod", Ext: "jar", Downloaded: true}},
					},
				},
			},
		},
	}

	got, err := fake.Resolve(context.Background(), "ivy.xml", engine.ResolveOptions{DownloadArtifacts: false})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for _, d := range got.Dependencies[0].Downloads["default"] {
		if d.Downloaded {
			t.Errorf("download flag not cleared: %+v", d)
		}
	}
	// The scripted report itself is untouched.
	if !fake.Report.Dependencies[0].Downloads["default"][0].Downloaded {
		t.Error("metadata pass mutated the scripted report")
	}
}
