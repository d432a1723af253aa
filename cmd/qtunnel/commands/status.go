package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List connected services",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := ctl.Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no services connected")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s  %s  since %s\n",
					s.ServiceID, s.RemoteAddr, s.Algorithm,
					s.ConnectedAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}
