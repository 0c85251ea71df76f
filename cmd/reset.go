package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhrabal/rollmark/internal/config"
	"github.com/mhrabal/rollmark/internal/ledger"
	"github.com/mhrabal/rollmark/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all samples, the trained model and attendance records",
	Long: `Wipe the sample store (face images, voice clips, trained model) and
all roster and attendance rows for this admin scope. Irreversible: the
system ends up in the same state as a fresh install.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if !mustGetBool(cmd, "yes") {
		fmt.Print("WARNING: this deletes ALL student data and images. Type 'YES' to continue: ")
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		if strings.TrimSpace(response) != "YES" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	st := store.New(cfg.Store.Dir)
	if err := st.Wipe(); err != nil {
		return fmt.Errorf("failed to wipe sample store: %w", err)
	}
	fmt.Printf("Sample store removed: %s\n", cfg.Store.Dir)

	db, err := ledger.Open(cfg.Database.Path, cfg.Database.AdminID)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Wipe(cmd.Context()); err != nil {
		return fmt.Errorf("failed to wipe ledger: %w", err)
	}
	fmt.Printf("Roster and attendance cleared: %s\n", cfg.Database.Path)

	fmt.Println("Reset complete.")
	return nil
}
