package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhrabal/rollmark/internal/capture"
	"github.com/mhrabal/rollmark/internal/config"
	"github.com/mhrabal/rollmark/internal/detect"
	"github.com/mhrabal/rollmark/internal/face"
	"github.com/mhrabal/rollmark/internal/ledger"
	"github.com/mhrabal/rollmark/internal/recognize"
	"github.com/mhrabal/rollmark/internal/speech"
	"github.com/mhrabal/rollmark/internal/store"
	"github.com/mhrabal/rollmark/internal/voice"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the live attendance recognition loop",
	Long: `Watch the camera, recognize enrolled faces, verify each new face
with a short voice check, and mark attendance in the ledger. One mark per
student per day; repeats are reported, not duplicated.

Runs until interrupted (Ctrl+C). Enrollment must not run concurrently
against the same sample store.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Bool("no-voice", false, "Skip voice checks, mark on face match alone")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := ledger.Open(cfg.Database.Path, cfg.Database.AdminID)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(cfg.Store.Dir)
	classifier := face.NewClassifier(st)
	if err := classifier.Load(); err != nil {
		if !errors.Is(err, face.ErrModelNotFound) {
			return err
		}
		// No model yet is fine: the loop runs in all-unknown mode.
	}

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
			fmt.Println("No audio capture device found, marking on face match alone")
		}
	}

	loop := recognize.NewLoop(
		classifier,
		voice.NewMatcher(),
		detector,
		camera,
		recorder,
		st,
		db,
		db,
		speech.New(),
		recognize.Options{
			DistanceThreshold: cfg.Face.DistanceThreshold,
			VoiceThreshold:    cfg.Voice.AcceptThreshold,
			ClipDuration:      cfg.Voice.ClipDuration,
			ChallengeDelay:    cfg.Voice.ChallengeDelay,
		},
	)

	fmt.Println("Recognition running, press Ctrl+C to stop.")
	return loop.Run(ctx)
}
