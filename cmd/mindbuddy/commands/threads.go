package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petasbytes/mindbuddy/memory"
)

func newThreadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List saved conversation threads",
		Long: `Lists the threads in the conversation store. The store is only read;
an unreadable store is reported, not repaired.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logs, err := memory.NewFileStore(cfg.Store.Path).Load()
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(logs))
			for k, turns := range logs {
				if len(turns) > 0 {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "THREAD\tTURNS")
			for _, k := range keys {
				name := k
				if k == cfg.Chat.Key {
					name += " (default)"
				}
				fmt.Fprintf(tw, "%s\t%d\n", name, len(logs[k]))
			}
			return tw.Flush()
		},
	}
}
