package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/born-ml/saliency/internal/config"
	"github.com/born-ml/saliency/internal/explain"
	"github.com/born-ml/saliency/internal/loader"
	"github.com/born-ml/saliency/internal/tensor"
)

func runExplain(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "explain.yaml", "path to the YAML configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLogger(); cerr != nil {
			fmt.Fprintf(stderr, "close log: %v\n", cerr)
		}
	}()

	if err := explainFiles(cfg, logger); err != nil {
		logger.Error("explain failed", zap.Error(err))
		return err
	}
	return nil
}

// explainFiles loads the model and data named by cfg, explains every input
// and writes the saliency maps.
func explainFiles(cfg *config.Config, logger *zap.Logger) error {
	model, err := loader.BuildModel(cfg.Model.Layers)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	if err := loader.LoadWeights(model, cfg.Model.Weights, cfg.WeightMapper()); err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	logger.Info("model loaded",
		zap.Int("layers", model.Len()),
		zap.String("weights", cfg.Model.Weights))

	data, err := loader.ReadSafeTensors(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	inputs, ok := data[cfg.Data.Inputs]
	if !ok {
		return fmt.Errorf("load data: %s has no tensor %q", cfg.Data.Path, cfg.Data.Inputs)
	}
	labels, ok := data[cfg.Data.Labels]
	if !ok {
		return fmt.Errorf("load data: %s has no tensor %q", cfg.Data.Path, cfg.Data.Labels)
	}

	explainer, err := explain.New(model, cfg.ExplainConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = explainer.Close() // Always nil
	}()

	start := time.Now()
	maps, err := explainer.Explain(inputs, labels)
	if err != nil {
		return err
	}
	logger.Info("saliency maps computed",
		zap.Int("samples", maps.Shape()[0]),
		zap.Duration("elapsed", time.Since(start)))

	metadata := map[string]string{
		"method":  "guided_backpropagation",
		"version": version,
	}
	if err := loader.WriteSafeTensors(cfg.Output.Path, map[string]*tensor.RawTensor{cfg.Output.Tensor: maps}, metadata); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("saliency maps written", zap.String("path", cfg.Output.Path))

	return nil
}
