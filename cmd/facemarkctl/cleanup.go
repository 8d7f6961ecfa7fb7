package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCmd(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate attendance rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Removed int64 `json:"removed"`
			}
			if err := cfg.do("POST", "/attendance/cleanup", nil, &result); err != nil {
				return err
			}
			fmt.Printf("removed %d duplicate rows\n", result.Removed)
			return nil
		},
	}
}
