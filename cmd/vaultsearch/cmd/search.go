package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank entries with the inverted index",
		Long: `Search tokenizes the query and ranks entries whose title, notes, url
or tags contain its words. Rarer words weigh more.

Examples:
  vaultsearch search github --corpus export.yaml
  vaultsearch search "bank savings" -n 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := root.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if limit == 0 {
				limit = root.cfg.Search.DefaultLimit
			}
			entries := s.SearchEntries(strings.Join(args, " "), limit)
			return printEntries(cmd.OutOrStdout(), root.format, entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default search.defaultLimit)")
	return cmd
}

func newFilterCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [keywords...]",
		Short: "Filter the entry list by substring relevance",
		Long: `Filter keeps entries where any keyword occurs in the title, username,
notes or url, or equals a tag, best matches first. Without keywords every
entry is listed in export order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := root.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return printEntries(cmd.OutOrStdout(), root.format, s.Filter(strings.Join(args, " ")))
		},
	}
	return cmd
}
