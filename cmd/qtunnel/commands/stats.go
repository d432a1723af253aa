package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cumulative hub counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctl.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("sessions total:     %d\n", st.SessionsTotal)
			fmt.Printf("messages routed:    %d\n", st.MessagesRouted)
			fmt.Printf("messages dropped:   %d\n", st.MessagesDropped)
			fmt.Printf("handshake failures: %d\n", st.HandshakeFailures)
			fmt.Printf("auth failures:      %d\n", st.AuthFailures)
			return nil
		},
	}
}
