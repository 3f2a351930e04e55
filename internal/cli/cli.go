// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line surface of the TaxRoute client.
//
// A bare invocation launches the TUI; subcommands cover account
// management and a plain-terminal chat REPL for environments where the
// full-screen UI is unwanted.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the parsed top-level command.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdSignup
	CmdLogout
	CmdWhoami
	CmdChat
	CmdConfig
	CmdVersion
	CmdHelp
)

// Parse maps os.Args[1:] onto a Command and its remaining arguments.
func Parse(args []string) (Command, []string) {
	if len(args) == 0 {
		return CmdTUI, nil
	}
	rest := args[1:]
	switch args[0] {
	case "login":
		return CmdLogin, rest
	case "signup":
		return CmdSignup, rest
	case "logout":
		return CmdLogout, rest
	case "whoami":
		return CmdWhoami, rest
	case "chat":
		return CmdChat, rest
	case "config":
		return CmdConfig, rest
	case "version", "--version", "-v":
		return CmdVersion, rest
	case "help", "--help", "-h":
		return CmdHelp, rest
	default:
		fmt.Fprintf(os.Stderr, "taxroute: unknown command %q\n\n", args[0])
		return CmdHelp, nil
	}
}

// PrintVersion writes version details to stdout.
func PrintVersion() {
	fmt.Printf("taxroute %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
	fmt.Printf("  %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// PrintUsage writes the top-level help text.
func PrintUsage() {
	usage := strings.TrimLeft(`
TaxRoute - terminal client for the TaxRoute tax-advisory service

Usage:
  taxroute              Launch the interactive TUI
  taxroute login        Log in with email and password
  taxroute login --google <credential>
                        Log in with a Google sign-in credential
  taxroute signup       Create an account
  taxroute logout       Forget the stored session
  taxroute whoami       Show the logged-in account
  taxroute chat         Plain-terminal chat (no full-screen UI)
  taxroute config       Show or edit configuration
  taxroute version      Show version information

Configuration lives at ~/.taxroute/config.toml. The server URL can be
overridden with TAXROUTE_SERVER_URL.
`, "\n")
	fmt.Print(usage)
}
