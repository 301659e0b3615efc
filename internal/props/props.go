// SPDX-License-Identifier: MPL-2.0

// Package props assembles the variable set that parameterizes resolver
// settings. Variables come from up to three sources with fixed precedence
// (lowest to highest): environment variables, properties files, and inline
// properties content. Properties files follow the Java conventions the
// resolver expects: line-oriented key=value pairs decoded as ISO-8859-1.
package props

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

// pathSeparator delimits entries in a multi-path properties specification.
const pathSeparator = ";"

// FileReadError is returned when a configured properties file cannot be
// read. It keeps the failing path so callers can point the user at it.
type FileReadError struct {
	Path string
	Err  error
}

// Error implements the error interface for FileReadError.
func (e *FileReadError) Error() string {
	return fmt.Sprintf("props: read properties file %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *FileReadError) Unwrap() error { return e.Err }

// SplitFilePaths splits a multi-path properties specification on ";" and
// trims surrounding whitespace from each segment. Empty segments are dropped,
// so an empty or blank spec yields no paths.
func SplitFilePaths(spec string) []string {
	if strings.TrimSpace(spec) == "" {
		return nil
	}

	var paths []string
	for _, segment := range strings.Split(spec, pathSeparator) {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			paths = append(paths, segment)
		}
	}
	return paths
}

// ExtractFileContents reads every file named by the multi-path spec, in
// listed order, and concatenates their contents with a trailing newline after
// each source. An empty spec yields "" without touching the filesystem. Any
// read failure is fatal to the evaluation and is returned wrapped.
func ExtractFileContents(spec string) (string, error) {
	paths := SplitFilePaths(spec)
	if len(paths) == 0 {
		return "", nil
	}

	var content strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &FileReadError{Path: path, Err: err}
		}
		content.Write(data)
		content.WriteString("\n")
	}
	return content.String(), nil
}

// Assemble merges the three variable sources into one mapping. For a key
// present in more than one source, the highest-precedence source wins:
// inline content over file content over environment variables. File content
// is decoded as ISO-8859-1, inline content as UTF-8. Variable references are
// left untouched; expansion is the resolver's job.
func Assemble(env map[string]string, fileContent, inlineContent string) (map[string]string, error) {
	vars := make(map[string]string, len(env))
	for k, v := range env {
		vars[k] = v
	}

	if fileContent != "" {
		if err := mergeProperties(vars, []byte(fileContent), properties.ISO_8859_1); err != nil {
			return nil, fmt.Errorf("props: parse properties file content: %w", err)
		}
	}

	if inlineContent != "" {
		if err := mergeProperties(vars, []byte(inlineContent), properties.UTF8); err != nil {
			return nil, fmt.Errorf("props: parse inline properties: %w", err)
		}
	}

	return vars, nil
}

// SortedKeys returns the variable names in ascending order. Iteration order
// only matters where variables are rendered (debug logging, the properties
// file handed to a command-line engine), and those paths go through here.
func SortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeProperties parses data and overlays every pair onto vars.
func mergeProperties(vars map[string]string, data []byte, enc properties.Encoding) error {
	loader := &properties.Loader{Encoding: enc, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return err
	}
	for k, v := range p.Map() {
		vars[k] = v
	}
	return nil
}
