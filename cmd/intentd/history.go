package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daqi-oss/intentd/internal/facade"
)

var (
	historyLimit int
	historyAfter int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent execution history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		f, err := buildFacade(cfg)
		if err != nil {
			return err
		}

		req := facade.ListHistoryRequest{Limit: historyLimit}
		if historyAfter != 0 {
			req.After = historyAfter
			req.HasAfter = true
		}

		page, err := f.ListHistory(context.Background(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, page)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records to return")
	historyCmd.Flags().Int64Var(&historyAfter, "after", 0, "cursor: only return records created after this unix-millis timestamp")
}
