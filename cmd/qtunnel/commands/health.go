package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the hub's algorithm and capability state",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ctl.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("status:    %s\n", h.Status)
			fmt.Printf("algorithm: %s\n", h.Algorithm)
			fmt.Printf("quantum:   %v\n", h.QuantumAvailable)
			fmt.Printf("sessions:  %d\n", h.SessionCount)
			return nil
		},
	}
}
