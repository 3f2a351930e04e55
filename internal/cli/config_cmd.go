// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/taxroute/taxroute-tui/internal/config"
)

// Config handles `taxroute config`:
//
//	taxroute config              show the effective configuration
//	taxroute config set KEY VAL  set a key and save
//	taxroute config path         print the config file location
func Config(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "show" {
		fmt.Printf("server.base_url     = %s\n", cfg.Server.BaseURL)
		fmt.Printf("server.timeout_secs = %d\n", cfg.Server.TimeoutSecs)
		fmt.Printf("server.streaming    = %t\n", cfg.Server.Streaming)
		fmt.Printf("ui.theme            = %s\n", cfg.UI.Theme)
		fmt.Printf("ui.confirm_delete   = %t\n", cfg.UI.ConfirmDelete)
		fmt.Printf("ui.sidebar_width    = %d\n", cfg.UI.SidebarWidth)
		return nil
	}

	switch args[0] {
	case "path":
		path, err := config.PathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: taxroute config set KEY VALUE")
		}
		if err := setKey(cfg, args[1], args[2]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return config.Save(cfg)
	default:
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

func setKey(cfg *config.Config, key, value string) error {
	switch key {
	case "server.base_url":
		cfg.Server.BaseURL = value
	case "server.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		cfg.Server.TimeoutSecs = n
	case "server.streaming":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Server.Streaming = b
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.confirm_delete":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.ConfirmDelete = b
	case "ui.sidebar_width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		cfg.UI.SidebarWidth = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
