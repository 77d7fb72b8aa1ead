package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baptistax/mediapicker/internal/probe"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "probe <url>",
		Short: "Report the real dimensions of an image asset",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	})
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := probe.New(probe.Options{Timeout: cfg.Timeout, UserAgent: cfg.UserAgent}).Dimensions(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("probe %s: %w", args[0], err)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
