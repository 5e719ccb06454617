package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type indexStats struct {
	Entries  int   `json:"entries"`
	Terms    int   `json:"terms"`
	Postings int64 `json:"postings"`
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics for the export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := root.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ix := s.Index().Index()
			st := indexStats{
				Entries:  ix.TotalEntry(),
				Terms:    ix.Terms(),
				Postings: ix.TotalToken(),
			}
			out := cmd.OutOrStdout()
			if root.format == "json" {
				return json.NewEncoder(out).Encode(st)
			}
			_, err = fmt.Fprintf(out, "entries:  %d\nterms:    %d\npostings: %d\n", st.Entries, st.Terms, st.Postings)
			return err
		},
	}
}
