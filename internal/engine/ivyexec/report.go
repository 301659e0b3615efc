// SPDX-License-Identifier: MPL-2.0

package ivyexec

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ivytrigger/internal/engine"
)

// Ivy writes one resolution report per configuration into the cache
// directory as "<org>-<module>-<conf>.xml". The exact naming is not part of
// Ivy's contract, so reports are found by sniffing the XML root element
// rather than by file name.

type (
	xmlReport struct {
		XMLName xml.Name    `xml:"ivy-report"`
		Info    xmlInfo     `xml:"info"`
		Modules []xmlModule `xml:"dependencies>module"`
	}

	xmlInfo struct {
		Organisation string `xml:"organisation,attr"`
		Module       string `xml:"module,attr"`
		Conf         string `xml:"conf,attr"`
	}

	xmlModule struct {
		Organisation string        `xml:"organisation,attr"`
		Name         string        `xml:"name,attr"`
		Revisions    []xmlRevision `xml:"revision"`
	}

	xmlRevision struct {
		Name      string        `xml:"name,attr"`
		Evicted   string        `xml:"evicted,attr"`
		Artifacts []xmlArtifact `xml:"artifacts>artifact"`
	}

	xmlArtifact struct {
		Name     string `xml:"name,attr"`
		Ext      string `xml:"ext,attr"`
		Status   string `xml:"status,attr"`
		Location string `xml:"location,attr"`
	}
)

// readReports parses every resolution report in cacheDir and merges the
// per-configuration views into one typed Report. At least one report file
// must exist; a resolve that produced none is treated as failed.
func readReports(cacheDir string) (*engine.Report, error) {
	files, err := reportFiles(cacheDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("ivyexec: no resolution report found in %q", cacheDir)
	}

	nodeIndex := make(map[string]*engine.DependencyNode)
	var order []string

	for _, file := range files {
		parsed, err := parseReportFile(file)
		if err != nil {
			return nil, err
		}
		conf := parsed.Info.Conf

		for _, mod := range parsed.Modules {
			for _, rev := range mod.Revisions {
				// Evicted revisions lost conflict resolution; they carry no
				// artifacts and do not belong in the snapshot.
				if rev.Evicted != "" {
					continue
				}

				id := engine.ModuleID{
					Organisation: mod.Organisation,
					Name:         mod.Name,
					Revision:     rev.Name,
				}
				key := id.String()

				node, ok := nodeIndex[key]
				if !ok {
					node = &engine.DependencyNode{
						ID:               id,
						ResolvedRevision: rev.Name,
						Downloads:        make(map[string][]engine.ArtifactDownload),
					}
					nodeIndex[key] = node
					order = append(order, key)
				}

				node.Configurations = append(node.Configurations, conf)
				for _, a := range rev.Artifacts {
					node.Downloads[conf] = append(node.Downloads[conf], engine.ArtifactDownload{
						Name:       a.Name,
						Ext:        a.Ext,
						Downloaded: a.Status == "successful",
						LocalFile:  a.Location,
					})
				}
			}
		}
	}

	report := &engine.Report{}
	for _, key := range order {
		report.Dependencies = append(report.Dependencies, *nodeIndex[key])
	}
	return report, nil
}

// reportFiles lists the XML files in cacheDir whose root element is
// <ivy-report>, in lexical order.
func reportFiles(cacheDir string) ([]string, error) {
	candidates, err := filepath.Glob(filepath.Join(cacheDir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("ivyexec: scan cache directory %q: %w", cacheDir, err)
	}

	var files []string
	for _, candidate := range candidates {
		head, err := readHead(candidate, 512)
		if err != nil {
			return nil, err
		}
		if strings.Contains(head, "<ivy-report") {
			files = append(files, candidate)
		}
	}
	return files, nil
}

// parseReportFile decodes one ivy-report XML document.
func parseReportFile(path string) (*xmlReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ivyexec: read report %q: %w", path, err)
	}
	var report xmlReport
	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("ivyexec: parse report %q: %w", path, err)
	}
	return &report, nil
}

// readHead returns up to n leading bytes of the file as a string.
func readHead(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ivyexec: open %q: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if read == 0 && err != nil {
		return "", nil
	}
	return string(buf[:read]), nil
}
