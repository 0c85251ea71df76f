package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rollmark",
	Short: "Face and voice based classroom attendance",
	Long: `Rollmark enrolls students from a webcam, trains a local face
classifier, and runs a live recognition loop that marks attendance after
a short voice check. All recognition runs on-device; the only persistent
state is a sample directory and a SQLite database.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
