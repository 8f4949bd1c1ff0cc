package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/simonsteiger/strix/adapters/csvdata"
	"github.com/simonsteiger/strix/adapters/excel"
	"github.com/simonsteiger/strix/adapters/postgres"
	"github.com/simonsteiger/strix/adapters/rng"
	"github.com/simonsteiger/strix/app"
	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/posterior"
	"github.com/simonsteiger/strix/internal"
	"github.com/simonsteiger/strix/internal/config"
	"github.com/simonsteiger/strix/ports"
	"github.com/simonsteiger/strix/ui"
)

func main() {
	var (
		posteriorPath    = flag.String("posterior", "", "posterior draws CSV (parameter,group,draw,value)")
		observationsPath = flag.String("observations", "", "observation table CSV (height,weight,age,sex); sets the reference offset")
		outPath          = flag.String("out", "contrast.xlsx", "workbook output path")
		groupA           = flag.String("group-a", "female", "first group of the contrast")
		groupB           = flag.String("group-b", "male", "second group of the contrast")
		gridMin          = flag.Float64("grid-min", 130, "lowest covariate value")
		gridMax          = flag.Float64("grid-max", 180, "highest covariate value")
		gridStep         = flag.Float64("grid-step", 5, "covariate grid step")
		minAge           = flag.Float64("min-age", 18, "minimum age for the reference-offset mean")
		seed             = flag.Int64("seed", 0, "random seed (0 uses DEFAULT_SEED)")
		draws            = flag.Int("draws", 0, "simulated draws per covariate (0 uses DEFAULT_DRAW_COUNT)")
		serve            = flag.Bool("serve", false, "start the HTTP server instead of a one-shot run")
	)
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration: %v", err)
		os.Exit(1)
	}

	var repo ports.ContrastRepositoryPort
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("database connection: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		pgRepo := postgres.NewContrastRepository(db)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			logger.Error("database schema: %v", err)
			os.Exit(1)
		}
		repo = pgRepo
	}

	service := app.NewContrastService(rng.New(), repo, logger)

	if *serve {
		server := ui.NewServer(service, repo, cfg.Analysis, logger)
		if err := server.ListenAndServe(":" + cfg.Server.Port); err != nil {
			logger.Error("server: %v", err)
			os.Exit(1)
		}
		return
	}

	if *posteriorPath == "" {
		fmt.Fprintln(os.Stderr, "missing -posterior (or use -serve)")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	sample, err := csvdata.NewPosteriorReader(*posteriorPath).ReadPosterior(ctx)
	if err != nil {
		logger.Error("posterior: %v", err)
		os.Exit(1)
	}

	var referenceOffset float64
	if *observationsPath != "" {
		obs, err := csvdata.NewObservationReader(*observationsPath).ReadObservations(ctx)
		if err != nil {
			logger.Error("observations: %v", err)
			os.Exit(1)
		}
		referenceOffset, err = app.ReferenceOffsetFromObservations(obs, *minAge)
		if err != nil {
			logger.Error("reference offset: %v", err)
			os.Exit(1)
		}
		logger.Info("reference offset: mean height %.2f over adults (age >= %g)", referenceOffset, *minAge)
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = cfg.Analysis.DefaultSeed
	}
	drawCount := *draws
	if drawCount == 0 {
		drawCount = cfg.Analysis.DefaultDrawCount
	}

	result, err := service.Run(ctx, app.ContrastRequest{
		Posterior:       sample,
		Grid:            contrast.NewGrid(*gridMin, *gridMax, *gridStep),
		ReferenceOffset: referenceOffset,
		DrawCount:       drawCount,
		GroupA:          posterior.GroupID(*groupA),
		GroupB:          posterior.GroupID(*groupB),
		QuantileLevels:  cfg.Analysis.QuantileLevels,
		Seed:            runSeed,
	})
	if err != nil {
		logger.Error("contrast run: %v", err)
		os.Exit(1)
	}

	if err := excel.NewWriter().Export(ctx, result, *outPath); err != nil {
		logger.Error("export: %v", err)
		os.Exit(1)
	}
	logger.Info("wrote %s (run %s)", *outPath, result.Manifest.RunID)
}
