package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/guildmaster/internal/provider"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Lista los proveedores OAuth2 registrados",
		Run: func(cmd *cobra.Command, args []string) {
			for _, ch := range provider.Default().Choices() {
				fmt.Printf("%-12s %s\n", ch.Name, ch.Description)
			}
		},
	}
}
