package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhrabal/rollmark/internal/config"
	"github.com/mhrabal/rollmark/internal/face"
	"github.com/mhrabal/rollmark/internal/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the face model from the sample store",
	Long: `Rebuild the face model from all samples currently on disk.

Enrollment retrains automatically; this command exists for rebuilding
after manually adding or pruning sample images.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	st := store.New(cfg.Store.Dir)

	classifier := face.NewClassifier(st)
	n, err := classifier.Train()
	if err != nil {
		if errors.Is(err, face.ErrInsufficientData) {
			return fmt.Errorf("no samples in %s; enroll at least one student first", cfg.Store.Dir)
		}
		return err
	}

	fmt.Printf("Model trained on %d samples, saved to %s\n", n, st.ModelPath())
	return nil
}
