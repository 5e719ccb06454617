package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/session"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/kafka"
)

func newNotifyCmd(root *rootOptions) *cobra.Command {
	var vaultID string

	cmd := &cobra.Command{
		Use:       "notify <unlocked|synced|locked>",
		Short:     "Publish a vault lifecycle event to Kafka",
		Long:      `Notify tells running serve instances that the vault was unlocked, synced or locked.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(session.EventUnlocked), string(session.EventSynced), string(session.EventLocked)},
		RunE: func(cmd *cobra.Command, args []string) error {
			t := session.EventType(args[0])
			switch t {
			case session.EventUnlocked, session.EventSynced, session.EventLocked:
			default:
				return apperrors.Newf(apperrors.ErrInvalidInput, "unknown event %q", args[0])
			}
			cfg := root.cfg.Kafka
			if len(cfg.Brokers) == 0 || cfg.Topics.VaultEvents == "" {
				return apperrors.New(apperrors.ErrInvalidConfig, "kafka brokers and topics.vaultEvents are required")
			}

			producer := kafka.NewProducer(cfg, cfg.Topics.VaultEvents)
			defer producer.Close()

			ev := session.VaultEvent{Type: t, VaultID: vaultID, OccurredAt: time.Now().UTC()}
			if err := producer.Publish(cmd.Context(), kafka.Event{Key: vaultID, Value: ev}); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", t)
			return err
		},
	}

	cmd.Flags().StringVar(&vaultID, "vault", "default", "Vault identifier used as the message key")
	return cmd
}
