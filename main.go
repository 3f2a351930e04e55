// TaxRoute TUI - a terminal client for the TaxRoute tax-advisory service.
//
// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/taxroute/taxroute-tui/internal/api"
	"github.com/taxroute/taxroute-tui/internal/auth"
	"github.com/taxroute/taxroute-tui/internal/cli"
	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/controller"
	"github.com/taxroute/taxroute-tui/internal/store"
	"github.com/taxroute/taxroute-tui/internal/ui"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	// No configuration needed for these.
	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	session, err := auth.Open()
	if err != nil {
		fatal(err)
	}
	client := api.NewClient(cfg, session)
	ctrl := controller.New(client, store.New(), session, cfg)
	ctx := context.Background()

	switch cmd {
	case cli.CmdLogin:
		err = cli.Login(ctx, client, session, args)
	case cli.CmdSignup:
		err = cli.Signup(ctx, client, session)
	case cli.CmdLogout:
		err = cli.Logout(session)
	case cli.CmdWhoami:
		err = cli.Whoami(ctx, client, session)
	case cli.CmdChat:
		err = cli.Chat(ctx, ctrl)
	case cli.CmdConfig:
		err = cli.Config(args)
	case cli.CmdTUI:
		err = ui.Run(cfg, client, session, ctrl)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "taxroute: %v\n", err)
	os.Exit(1)
}
