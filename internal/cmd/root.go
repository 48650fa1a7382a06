// internal/cmd/root.go
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nutrilog",
	Short: "Deterministic food and workout energy estimation",
	Long: `nutrilog keeps a personal nutrition and activity log. Meal text in
English or Chinese becomes a bounded calorie range, heart-rate data becomes
an energy estimate, and everything lands in one local database.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// A missing .env is fine, the environment may be set directly.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "nutrilog.db", "Path to the SQLite database (env NUTRILOG_DB)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// databasePath resolves the storage location: --db beats NUTRILOG_DB beats
// the local default.
func databasePath() string {
	if rootCmd.PersistentFlags().Changed("db") {
		return dbPath
	}
	if v := os.Getenv("NUTRILOG_DB"); v != "" {
		return v
	}
	return dbPath
}
