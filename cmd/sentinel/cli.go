// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config string `help:"Config file path (default: ./sentinel.toml)"`

	Run          RunCmd          `cmd:"" help:"Deploy an agent against a control"`
	Portfolio    PortfolioCmd    `cmd:"" help:"Show the risk portfolio and its metrics"`
	Capabilities CapabilitiesCmd `cmd:"" help:"List agent capabilities"`
	Replay       ReplayCmd       `cmd:"" help:"Replay a stored audit session"`
	Version      VersionCmd      `cmd:"" help:"Show version information"`
}

// RunCmd deploys an agent for one control.
type RunCmd struct {
	Control string `arg:"" help:"Control id to verify (e.g. c-1)"`
	Domain  string `default:"Modern Enterprise" help:"Business domain used to seed the portfolio"`
	Offline bool   `help:"Skip the model API and use the offline script"`
}

// PortfolioCmd prints the risk portfolio.
type PortfolioCmd struct {
	Domain  string `default:"Modern Enterprise" help:"Business domain used to seed the portfolio"`
	Offline bool   `help:"Skip the model API and use the static portfolio"`
}

// CapabilitiesCmd lists the capability catalog.
type CapabilitiesCmd struct {
	Custom string `help:"YAML file with custom capability definitions"`
}

// ReplayCmd replays a stored session.
type ReplayCmd struct {
	Session string `arg:"" optional:"" help:"Session file or run id"`
	List    bool   `help:"List stored sessions"`
	Follow  bool   `short:"f" help:"Follow a live session as it appends"`
	NoPager bool   `help:"Disable the interactive pager"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
