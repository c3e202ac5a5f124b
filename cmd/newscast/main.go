package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"newscast/avatar"
	"newscast/config"
	apperrors "newscast/errors"
	"newscast/logger"
	"newscast/pipeline"
	"newscast/repository/sqlite"
	"newscast/runner"
	"newscast/scheduler"
	"newscast/scraper"
	"newscast/scriptgen"
	"newscast/storage"
	"newscast/tts"
	"newscast/validation"
	"newscast/video"
	"newscast/youtube"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Environment variables may be set directly.
		fmt.Fprintln(os.Stderr, "No .env file found, using environment")
	}

	var (
		authFlag     = flag.Bool("auth", false, "run the interactive OAuth consent flow and exit")
		infoFlag     = flag.Bool("info", false, "print the authorized channel identity and exit")
		revokeFlag   = flag.Bool("revoke", false, "revoke the stored credential and exit")
		generateTime = flag.String("generate-time", "", "daily generation time HH:MM (overrides GENERATE_TIME)")
		uploadTime   = flag.String("upload-time", "", "daily upload time HH:MM (overrides UPLOAD_TIME)")
		runNow       = flag.Bool("run-now", false, "run one generate+upload pass before the schedule loop")
		language     = flag.String("language", "en", "script language code")
		noUpload     = flag.Bool("no-upload", false, "generate the video but skip the upload")
		testMode     = flag.Bool("test", false, "upload as private for verification")
		noScrape     = flag.Bool("no-scrape", false, "use stored articles without scraping")
		once         = flag.Bool("once", false, "run a single pipeline pass and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *generateTime != "" {
		cfg.Schedule.GenerateTime = *generateTime
	}
	if *uploadTime != "" {
		cfg.Schedule.UploadTime = *uploadTime
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.LogDir, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	if _, err := validation.ValidateLanguage(*language); err != nil {
		fatal(log, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Shutdown signal received")
		cancel()
	}()

	auth, err := youtube.NewAuthenticator(cfg.YouTube, log)
	if err != nil {
		fatal(log, err)
	}

	// Credential commands need no pipeline wiring.
	switch {
	case *authFlag:
		auth.SetInteractive(true)
		if _, err := auth.Authenticate(ctx); err != nil {
			fatal(log, err)
		}
		fmt.Println("Authorization complete.")
		return
	case *revokeFlag:
		if err := auth.Revoke(ctx); err != nil {
			fatal(log, err)
		}
		fmt.Println("Credential revoked.")
		return
	case *infoFlag:
		info, err := auth.Info(ctx)
		if err != nil {
			fatal(log, err)
		}
		fmt.Printf("Channel:     %s\n", info.Title)
		fmt.Printf("ID:          %s\n", info.ID)
		fmt.Printf("Subscribers: %s\n", info.Subscribers)
		fmt.Printf("Videos:      %s\n", info.VideoCount)
		printStats(ctx, cfg, log)
		return
	}

	app, err := buildPipeline(ctx, cfg, auth, log, !*noUpload || *runNow)
	if err != nil {
		fatal(log, err)
	}

	if *once {
		result, err := app.Run(ctx, pipeline.Options{
			Language:    *language,
			Upload:      !*noUpload,
			TestMode:    *testMode,
			ScrapeFresh: !*noScrape,
		})
		if err != nil {
			fatal(log, err)
		}
		printResult(result)
		return
	}

	state := scheduler.NewStateStore(cfg.Schedule.StateFile)
	sched, err := scheduler.New(cfg.Schedule, *language, app, state, log)
	if err != nil {
		fatal(log, err)
	}

	if *runNow {
		if err := sched.RunNow(ctx, !*noUpload); err != nil {
			log.WithError(err).Error("Immediate run failed")
			remediate(log, err)
		}
	}

	if err := sched.Start(); err != nil {
		fatal(log, err)
	}
	defer sched.Stop()

	generate, upload := sched.NextRuns()
	log.WithFields(logrus.Fields{
		"next_generate": generate,
		"next_upload":   upload,
	}).Info("Waiting for scheduled runs")

	<-ctx.Done()
}

func buildPipeline(ctx context.Context, cfg *config.Config, auth *youtube.Authenticator, log *logrus.Logger, needUploader bool) (*pipeline.Pipeline, error) {
	db, err := sqlite.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	sources, err := scraper.LoadSources(cfg.Scraper.SourcesFile)
	if err != nil {
		return nil, err
	}

	run := runner.New(log)
	for _, tool := range []string{cfg.Video.FFmpegPath, cfg.Video.FFprobePath, cfg.TTS.ToolPath} {
		if err := runner.CheckTool(tool); err != nil {
			return nil, err
		}
	}

	var llm scriptgen.Client = scriptgen.NewFallbackClient(
		scriptgen.NewGroqClient(cfg.LLM),
		scriptgen.NewOllamaClient(cfg.LLM),
		log,
	)

	var notes pipeline.NotesUploader
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		notes = client
	}

	var uploader pipeline.VideoUploader
	if needUploader {
		httpClient, err := auth.Client(ctx)
		if err == nil {
			uploader = youtube.NewUploader(httpClient, log)
		} else if apperrors.IsKind(err, apperrors.KindUnauthenticated) {
			// Generation-only runs work without a credential; the
			// upload stage will fail loudly if reached.
			log.Warn(apperrors.Remediation(apperrors.KindUnauthenticated))
			uploader = youtube.NewUploader(nil, log)
		} else {
			return nil, err
		}
	} else {
		uploader = youtube.NewUploader(nil, log)
	}

	articles := sqlite.NewArticleRepo(db)
	deps := pipeline.Deps{
		Sources:     sources,
		Articles:    articles,
		Jobs:        sqlite.NewJobRepo(db),
		Scraper:     scraper.New(cfg.Scraper, articles, sqlite.NewScrapeLogRepo(db), log),
		Writer:      scriptgen.NewWriter(llm, log),
		Synthesizer: tts.NewSynthesizer(cfg.TTS, cfg.Video.FFprobePath, run, log),
		Avatar:      avatar.NewGenerator(cfg.Avatar, cfg.Video.FFmpegPath, run, log),
		Composer:    video.NewComposer(cfg.Video, run, log),
		Notes:       notes,
		RenderNotes: storage.RenderNotes,
		Uploader:    uploader,
	}

	return pipeline.New(cfg, deps, log), nil
}

func printStats(ctx context.Context, cfg *config.Config, log *logrus.Logger) {
	db, err := sqlite.InitDB(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Warn("Could not open database for statistics")
		return
	}
	defer db.Close()

	stats, err := sqlite.Stats(ctx, db)
	if err != nil {
		log.WithError(err).Warn("Could not read statistics")
		return
	}
	fmt.Printf("\nArticles:  %d stored, %d used, %d available\n",
		stats.TotalArticles, stats.UsedArticles, stats.UnusedArticles)
	fmt.Printf("Runs:      %d completed, %d uploaded\n",
		stats.TotalVideos, stats.UploadedVideos)
}

func printResult(result *pipeline.RunResult) {
	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Job ID:    %s\n", result.JobID)
	fmt.Printf("Title:     %s\n", result.Title)
	fmt.Printf("Articles:  %d\n", result.ArticleCount)
	fmt.Printf("Duration:  %.1fs\n", result.Duration)
	fmt.Printf("Video:     %s\n", result.VideoPath)
	fmt.Printf("Thumbnail: %s\n", result.ThumbnailPath)
	if result.NotesURL != "" {
		fmt.Printf("Notes:     %s\n", result.NotesURL)
	}
	if result.Uploaded {
		fmt.Printf("YouTube:   %s\n", result.YouTubeURL)
	}
}

func remediate(log *logrus.Logger, err error) {
	if hint := apperrors.Remediation(apperrors.KindOf(err)); hint != "" {
		log.Warn(hint)
	}
}

func fatal(log *logrus.Logger, err error) {
	log.Error(err)
	remediate(log, err)
	os.Exit(1)
}
