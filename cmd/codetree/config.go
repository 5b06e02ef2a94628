package main

import (
	"fmt"
	"path/filepath"

	"codetree/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage codetree configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default codetree.yaml to the working directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cfg.ResolveWorkingDir()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "codetree.yaml")
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
