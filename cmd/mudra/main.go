package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
)

func main() {
	fmt.Println("Mudra - Streaming Gesture Inference Server")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogFile, cfg.Production())
	defer log.Sync()

	// Load the model artifact before accepting connections. A broken or
	// missing artifact is fatal: the server must never serve predictions
	// from a half-loaded model.
	engine, err := loadEngine(cfg, log)
	if err != nil {
		log.Fatal("failed to load model", zap.Error(err))
	}
	defer engine.Close()

	log.Info("model loaded",
		zap.String("device", engine.Device()),
		zap.Strings("gestures", engine.Catalog().Labels()))

	registry := session.NewRegistry(session.MachineConfig{
		Engine:              engine,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Cooldown:            cfg.PredictionCooldown,
		Log:                 log,
	})

	srv := server.New(server.Config{
		Engine:   engine,
		Registry: registry,
		Log:      log,
	})

	log.Info("server starting",
		zap.String("addr", cfg.Addr()),
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold),
		zap.Duration("prediction_cooldown", cfg.PredictionCooldown))

	if err := srv.ListenAndServe(cfg.Addr()); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

// loadEngine assembles the inference engine from the model artifact directory:
// the gesture catalog, optional normalization statistics, and the classifier
// runner hosting the trained weights.
func loadEngine(cfg *config.Config, log *zap.Logger) (*inference.Engine, error) {
	catalog, err := inference.LoadCatalog(filepath.Join(cfg.ModelDir, "gestures_map.json"))
	if err != nil {
		return nil, err
	}

	// Normalization stats are optional: a model trained without them
	// classifies raw windows.
	statsPath := filepath.Join(cfg.ModelDir, "normalization_stats.json")
	stats, err := inference.LoadStats(statsPath)
	if err != nil {
		log.Warn("normalization stats not loaded", zap.String("path", statsPath), zap.Error(err))
		stats = nil
	}

	classifier, err := inference.NewTorchClassifier(inference.TorchConfig{
		ModelDir: cfg.ModelDir,
	})
	if err != nil {
		return nil, err
	}

	return inference.NewEngine(classifier, catalog, stats, log)
}
