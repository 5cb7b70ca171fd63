package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daqi-oss/intentd/internal/facade"
)

var parseExplain bool

var parseCmd = &cobra.Command{
	Use:   "parse [input]",
	Short: "Parse input into an execution plan and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		f, err := buildFacade(cfg)
		if err != nil {
			return err
		}

		resp, err := f.ParseIntent(context.Background(), facade.ParseIntentRequest{
			Input:   args[0],
			Explain: parseExplain,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseExplain, "explain", false, "attach the parser's matched-rule trace")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
