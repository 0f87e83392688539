// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Slotter Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Slotter CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slotter",
		Short: "Slotter - identity, teams and company slot assignment",
		Long: `Slotter coordinates identity, team formation and capacity-limited
company slot assignment for a cohort event. Students register, form
teams, and teams claim one of a limited number of slots at partner
companies.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
