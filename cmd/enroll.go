package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhrabal/rollmark/internal/capture"
	"github.com/mhrabal/rollmark/internal/config"
	"github.com/mhrabal/rollmark/internal/detect"
	"github.com/mhrabal/rollmark/internal/enroll"
	"github.com/mhrabal/rollmark/internal/face"
	"github.com/mhrabal/rollmark/internal/ledger"
	"github.com/mhrabal/rollmark/internal/store"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <student-id> [name]",
	Short: "Capture face and voice samples for a new student",
	Long: `Enroll a student: auto-capture face samples from the webcam, record
one short voice clip, and retrain the face model.

The student ID must be a non-negative integer because the classifier's
label space is integral. Re-enrolling an existing ID adds face samples
and replaces the voice clip.

Examples:
  # Enroll student 7 named Jana
  rollmark enroll 7 "Jana Novotná"

  # Face-only enrollment (skip the voice clip)
  rollmark enroll 7 "Jana Novotná" --no-voice`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Bool("no-voice", false, "Skip the voice sample recording")
	enrollCmd.Flags().Int("samples", 0, "Override the number of face samples to capture")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	studentID, err := strconv.Atoi(args[0])
	if err != nil || studentID < 0 {
		return fmt.Errorf("student ID must be a non-negative integer, got %q", args[0])
	}
	displayName := fmt.Sprintf("Student %d", studentID)
	if len(args) == 2 {
		displayName = args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := ledger.Open(cfg.Database.Path, cfg.Database.AdminID)
	if err != nil {
		return err
	}
	defer db.Close()

	detector, err := detect.NewPigoDetector(cfg.Detection.CascadePath, cfg.DetectionProfile())
	if err != nil {
		return err
	}

	camera, err := capture.OpenV4L2(cfg.Capture.CameraDevice, cfg.Capture.FrameWidth, cfg.Capture.FrameHeight)
	if err != nil {
		return err
	}
	defer camera.Close()

	var recorder capture.Recorder
	if !mustGetBool(cmd, "no-voice") {
		mic := capture.NewMicrophone()
		if mic.Available() {
			recorder = mic
		} else {
			fmt.Println("No audio capture device found, voice step will be skipped")
		}
	}

	st := store.New(cfg.Store.Dir)
	opts := enroll.Options{
		TargetSamples: cfg.Enroll.TargetSamples,
		MinInterval:   cfg.Enroll.MinInterval,
		Timeout:       cfg.Enroll.Timeout,
		WarmupFrames:  cfg.Enroll.WarmupFrames,
		ClipDuration:  cfg.Voice.ClipDuration,
	}
	if n := mustGetInt(cmd, "samples"); n > 0 {
		opts.TargetSamples = n
	}

	session := enroll.NewSession(st, face.NewClassifier(st), detector, camera, recorder, db, opts)
	if err := session.Run(ctx, studentID, displayName); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Done! Student %d (%s) is now recognizable.\n", studentID, displayName)
	return nil
}
