package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/DoaneAS/genevector"
	"github.com/DoaneAS/genevector/config"
	"github.com/DoaneAS/genevector/dataset"
	"github.com/DoaneAS/genevector/utils"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to run configuration")
	flag.Parse()

	// .env values are optional overrides for the environment; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		utils.NewLogger("info").Fatal("load config: ", err)
	}
	logger := utils.NewLogger(cfg.LogLevel)

	if cfg.Data.Pairs == "" {
		logger.Fatal("no pairs file configured; set data.pairs")
	}
	f, err := os.Open(cfg.Data.Pairs)
	if err != nil {
		logger.Fatal("open pairs file: ", err)
	}
	ds, err := dataset.ReadPairs(f, cfg.Data.NumCells, cfg.Training.Seed)
	f.Close()
	if err != nil {
		logger.Fatal("load pairs: ", err)
	}
	logger.Info("loaded %d genes from %s", len(ds.Genes()), cfg.Data.Pairs)

	trainer, err := genevector.NewTrainer(ds, cfg.Training.Output, genevector.Options{
		EmbeddingDim: cfg.Training.EmbeddingDim,
		BatchSize:    cfg.Training.BatchSize,
		Gain:         cfg.Training.Gain,
		C:            cfg.Training.C,
		Device:       genevector.Device(cfg.Training.Device),
		InitOrtho:    cfg.Training.InitOrtho,
		Seed:         cfg.Training.Seed,
	})
	if err != nil {
		logger.Fatal("construct trainer: ", err)
	}
	logger.Info("training %d pairs for up to %d epochs (dim=%d batch=%d)",
		ds.NumPairs(), cfg.Training.Epochs, cfg.Training.EmbeddingDim, cfg.Training.BatchSize)

	err = trainer.Train(cfg.Training.Epochs, cfg.Training.Threshold,
		cfg.Training.LogInterval, cfg.Training.Alpha, cfg.Training.Beta)
	if err != nil {
		logger.Fatal("train: ", err)
	}

	if cfg.Training.LossLog != "" {
		if err := trainer.WriteLossLog(cfg.Training.LossLog); err != nil {
			logger.Error("write loss log: %v", err)
		}
	}
	if cfg.Training.LossPlot != "" {
		if err := trainer.Plot(cfg.Training.LossPlot, cfg.Training.LogXScale); err != nil {
			logger.Error("plot loss: %v", err)
		}
	}
	logger.Info("wrote embeddings to %s", cfg.Training.Output)
}
