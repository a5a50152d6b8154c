package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gaussinit/internal/models"
	"gaussinit/pkg/config"
	"gaussinit/pkg/estimator"
	"gaussinit/pkg/imageio"
	"gaussinit/pkg/server"
	"gaussinit/pkg/synthetic"
	"gaussinit/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "gaussinit.yaml", "YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	input := flag.String("input", "", "Image to estimate (png, jpeg, tiff or json)")
	mock := flag.Int("mock", -1, "Estimate a synthetic image with this many components (0 draws the count)")
	size := flag.Int("size", 128, "Width and height of the synthetic image")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed of the synthetic image")
	noise := flag.Float64("noise", synthetic.DefaultNoise, "Noise standard deviation of the synthetic image")
	saveMock := flag.String("save-mock", "", "Write the synthetic image as json")
	components := flag.Int("n", -1, "Number of components, 0 for automatic selection (overrides config)")
	sel := flag.String("selection", "", "Estimation data selection method (overrides config)")
	clusteringSel := flag.String("clustering-selection", "", "Clustering data selection method (overrides config)")
	plotDir := flag.String("plot-dir", "", "Write diagnostic plots to this directory (overrides config)")
	serve := flag.Bool("serve", false, "Run the HTTP service instead of a single estimate")
	addr := flag.String("addr", "", "Listen address of the HTTP service (overrides config)")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("could not write config")
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			cfg.Estimation.Components = *components
		case "selection":
			cfg.Estimation.Selection = *sel
		case "clustering-selection":
			cfg.Estimation.ClusteringSelection = *clusteringSel
		case "plot-dir":
			cfg.Output.PlotMode = config.PlotAll
			cfg.Output.PlotDir = *plotDir
		case "addr":
			cfg.Server.Addr = *addr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)

	params, err := cfg.EstimatorParams()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid estimator parameters")
	}

	if *serve {
		runServer(cfg, params)
		return
	}

	var img models.Image
	switch {
	case *input != "":
		img, err = imageio.Load(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load image")
		}
		log.Info().Str("input", *input).Int("width", img.Width).Int("height", img.Height).Msg("loaded image")
	case *mock >= 0:
		img = mockImage(*size, *seed, *mock, *noise)
		if *saveMock != "" {
			if err := imageio.SaveJSON(img, *saveMock); err != nil {
				log.Fatal().Err(err).Msg("could not save synthetic image")
			}
		}
	default:
		flag.Usage()
		os.Exit(1)
	}

	if cfg.Output.PlotMode == config.PlotAll {
		params.Observer = visualization.NewReporter(cfg.Output.PlotDir, img.Width, img.Height)
	}

	start := time.Now()
	result, err := estimator.New(params).Estimate(img.Data, img.Width, img.Height, cfg.Estimation.Components)
	if err != nil {
		log.Fatal().Err(err).Msg("estimation failed")
	}

	fmt.Printf("\nEstimated %d component(s) in %.3f seconds\n", len(result), time.Since(start).Seconds())
	printComponents(result)
}

// setupLogging configures the global zerolog logger from the output section.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Output.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Output.Verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// mockImage renders n random components (a random count for n == 0) and
// prints their parameters.
func mockImage(size int, seed uint64, n int, noise float64) models.Image {
	g := synthetic.NewGenerator(size, size, seed)
	truth := g.RandomComponents(n)
	img := g.Render(truth)
	g.AddNoise(img, noise)

	log.Info().Uint64("seed", seed).Int("components", len(truth)).Float64("noise", noise).Msg("generated synthetic image")
	fmt.Println("Generated components:")
	printComponents(truth)
	return img
}

func printComponents(components []models.Component) {
	fmt.Println("================================")
	for i, c := range components {
		fmt.Printf("%d  %s\n", i, c)
	}
	fmt.Println("================================")
}

func runServer(cfg *config.Config, params estimator.Params) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := server.NewHandler(params, cfg.Server.MaxBodyBytes)
	if err := server.Run(ctx, cfg.Server.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
