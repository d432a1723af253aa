package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"qtunnel/internal/domain"
)

// send <sender> <target> <message>: route a message through the hub.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <sender> <target> <message>",
		Short: "Route a message between two connected services",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender := domain.ServiceID(args[0])
			target := domain.ServiceID(args[1])
			if err := ctl.Send(cmd.Context(), sender, target, []byte(args[2])); err != nil {
				return fmt.Errorf("sending to %q: %w", target, err)
			}
			fmt.Println("routed")
			return nil
		},
	}
}
