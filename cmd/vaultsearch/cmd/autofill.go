package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/autofill"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
)

func newAutofillCmd(root *rootOptions) *cobra.Command {
	var form autofill.Form

	cmd := &cobra.Command{
		Use:   "autofill",
		Short: "Suggest entries for a login window",
		Long: `Autofill searches with the window titles and web domains of a login
form and returns the few entries that fit best.

Example:
  vaultsearch autofill --title "Sign in to GitHub" --domain github.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Query() == "" {
				return apperrors.New(apperrors.ErrInvalidInput, "autofill needs --title or --domain")
			}
			s, _, err := root.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return printEntries(cmd.OutOrStdout(), root.format, s.Autofill(form))
		},
	}

	cmd.Flags().StringArrayVar(&form.Titles, "title", nil, "Window title (repeatable)")
	cmd.Flags().StringArrayVar(&form.WebDomains, "domain", nil, "Web domain (repeatable)")
	return cmd
}
