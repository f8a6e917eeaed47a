package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask a running conversion to stop after the current recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stopFile := cfg.StopFilePath()
			out := cmd.OutOrStdout()
			if clear {
				if err := os.Remove(stopFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("remove stop file: %w", err)
				}
				fmt.Fprintf(out, "Stop request cleared (%s)\n", stopFile)
				return nil
			}
			if err := os.WriteFile(stopFile, nil, 0o644); err != nil {
				return fmt.Errorf("create stop file: %w", err)
			}
			fmt.Fprintf(out, "Stop requested; the run ends before the next recording (%s)\n", stopFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Remove a pending stop request")
	return cmd
}
