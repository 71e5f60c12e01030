package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version se inyecta en build time via -ldflags.
var version = "dev"

func main() {
	// .env es opcional, en producción las variables vienen del entorno
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "guildmaster",
		Short: "Servicio de conexión de cuentas OAuth2 (Discord, Battle.net, EVE Online)",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path al YAML de configuración (vacío = defaults)")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newProvidersCmd(),
		newKeygenCmd(),
		newEncCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión del binario",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
