package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

// connect <service-name>: fetch handshake bootstrap info for a service.
func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <service-name>",
		Short: "Request connection info for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := ctl.Connect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("endpoint:      %s\n", info.Endpoint)
			fmt.Printf("algorithm:     %s\n", info.AlgorithmID)
			fmt.Printf("connection id: %s\n", info.ConnectionID)
			fmt.Printf("public key:    %s\n", base64.StdEncoding.EncodeToString(info.PublicKey))
			return nil
		},
	}
}
