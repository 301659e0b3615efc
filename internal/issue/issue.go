// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing failure pages and actionable errors for
// the trigger CLI. Issues are rendered as markdown so the fix instructions
// stay readable in a terminal.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	SettingsNotConfiguredId
	DescriptorNotFoundId
	PropertiesReadFailedId
	EngineNotAvailableId
	SnapshotCorruptId
)

type MarkdownMsg string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

// Issue is one documented failure mode with remediation steps.
type Issue struct {
	id    Id          // ID used to look up the issue
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the ivytrigger configuration file.

## Things you can try:
- Check the CUE syntax of your config file
- Point at another file explicitly:
~~~
$ ivytrigger --config path/to/config.cue evaluate
~~~

## Example configuration:
~~~cue
namespace:  "my-app"
descriptor: "ivy.xml"

settings: file: "ivysettings.xml"

watch: {
  interval: "5m"
  hook:     "echo dependencies changed"
}
~~~`,
	}

	settingsNotConfiguredIssue = &Issue{
		id: SettingsNotConfiguredId,
		mdMsg: `
# No resolver settings configured!

An evaluation needs exactly one resolver settings source.

## Things you can try:
- Point at a local settings file:
~~~cue
settings: file: "ivysettings.xml"
~~~

- Or fetch settings from a URL:
~~~cue
settings: url: "https://repo.example.com/ivysettings.xml"
~~~`,
	}

	descriptorNotFoundIssue = &Issue{
		id: DescriptorNotFoundId,
		mdMsg: `
# Dependency descriptor not found!

The descriptor file to resolve does not exist or is not readable.

## Things you can try:
- Check the ` + "`descriptor`" + ` path in your config
- Paths are resolved relative to the working directory:
~~~
$ cd /path/to/project && ivytrigger evaluate
~~~`,
	}

	propertiesReadFailedIssue = &Issue{
		id: PropertiesReadFailedId,
		mdMsg: `
# Cannot read properties files!

One of the configured properties files could not be read.

## Things you can try:
- Check each path in the ` + "`properties.files`" + ` list — entries are
  separated by ` + "`;`" + ` and trimmed of surrounding whitespace
- Verify file permissions`,
	}

	engineNotAvailableIssue = &Issue{
		id: EngineNotAvailableId,
		mdMsg: `
# Resolve engine not available!

The Apache Ivy command line could not be found.

## Things you can try:
- Install Ivy and make sure the launcher is on PATH
- Or point at the launcher explicitly:
~~~cue
ivy: command: "/opt/ivy/bin/ivy"
~~~`,
	}

	snapshotCorruptIssue = &Issue{
		id: SnapshotCorruptId,
		mdMsg: `
# Snapshot file is corrupt!

The stored dependency snapshot could not be parsed, so change detection has
no baseline.

## Things you can try:
- Delete the snapshot file; the next evaluation writes a fresh one
- Check that nothing else writes to the snapshot path`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		settingsNotConfiguredIssue.Id(): settingsNotConfiguredIssue,
		descriptorNotFoundIssue.Id():    descriptorNotFoundIssue,
		propertiesReadFailedIssue.Id():  propertiesReadFailedIssue,
		engineNotAvailableIssue.Id():    engineNotAvailableIssue,
		snapshotCorruptIssue.Id():       snapshotCorruptIssue,
	}
)

func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.Id()) - int(b.Id()) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
