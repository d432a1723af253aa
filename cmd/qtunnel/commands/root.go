package commands

import (
	"github.com/spf13/cobra"

	"qtunnel/internal/control"
)

var (
	controlURL string
	ctl        *control.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:   "qtunnel",
		Short: "Quantum-key-exchange tunnel hub for internal services",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctl = control.NewClient(controlURL)
		},
	}

	root.PersistentFlags().StringVar(&controlURL, "control", "http://127.0.0.1:8080", "control surface base URL")

	root.AddCommand(serveCmd(), healthCmd(), statusCmd(), statsCmd(), connectCmd(), sendCmd())
	return root.Execute()
}
