// tenantgate es el core de identidad multi-tenant: tenants, usuarios,
// sesiones firmadas, login federado y API tokens.
//
// Subcomandos:
//
//	serve    levanta el proceso (health, readiness, métricas y sweep)
//	migrate  aplica el esquema embebido contra Postgres
//	seed     crea un tenant demo con su admin
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagEnvFile    string
)

func main() {
	root := &cobra.Command{
		Use:   "tenantgate",
		Short: "Core de identidad multi-tenant",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env opcional: los secretos suelen llegar por acá en dev
			if flagEnvFile != "" {
				_ = godotenv.Load(flagEnvFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", envOr("TENANTGATE_CONFIG", ""), "ruta a config.yaml (env TENANTGATE_CONFIG)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env (si existe, se carga)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
