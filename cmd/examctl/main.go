package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/repository"
	"github.com/noah-isme/exam-scheduler/internal/service"
	"github.com/noah-isme/exam-scheduler/pkg/cache"
	"github.com/noah-isme/exam-scheduler/pkg/config"
	"github.com/noah-isme/exam-scheduler/pkg/database"
	"github.com/noah-isme/exam-scheduler/pkg/logger"
)

const usage = `usage: examctl <command> [flags]

commands:
  seed      import courses and rooms from CSV
  schedule  run the exam scheduler once
  export    write current arrangements to a CSV or PDF file`

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sqlx.DB
	validate *validator.Validate
	cleanup  []func()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		log.Fatalf("examctl: %v", err)
	}
	defer a.close()

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "seed":
		err = a.seed(ctx, args)
	case "schedule":
		err = a.schedule(ctx, args)
	case "export":
		err = a.export(ctx, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		a.close()
		os.Exit(2)
	}
	if err != nil {
		a.logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		a.close()
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &app{cfg: cfg, logger: logr, db: db, validate: validator.New()}
	a.cleanup = append(a.cleanup, func() { _ = db.Close() }, func() { _ = logr.Sync() })
	return a, nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *app) scheduler() (*service.ExamSchedulerService, error) {
	arrangementRepo := repository.NewExamArrangementRepository(a.db)
	roomRepo := repository.NewRoomRepository(a.db)

	var lock service.RunLocker
	if a.cfg.Redis.Enabled {
		client, err := cache.NewRedis(a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { _ = client.Close() })
		lock = repository.NewRedisRunLock(client, a.cfg.Scheduler.LockKey, a.cfg.Scheduler.LockTTL, a.logger)
	}

	constraints := service.NewConstraintService(repository.NewTeacherConstraintRepository(a.db), arrangementRepo, nil, a.validate, a.logger)
	conflicts := service.NewConflictService(arrangementRepo, roomRepo, nil, a.validate, a.logger)
	return service.NewExamSchedulerService(
		repository.NewCourseRepository(a.db),
		roomRepo,
		arrangementRepo,
		constraints,
		conflicts,
		a.db,
		lock,
		nil,
		a.validate,
		a.logger,
		service.ExamSchedulerConfig{RandomSeed: a.cfg.Scheduler.RandomSeed},
	), nil
}

func (a *app) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	coursesPath := fs.String("courses", "", "Path to the courses CSV file")
	roomsPath := fs.String("rooms", "", "Path to the rooms CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *coursesPath == "" && *roomsPath == "" {
		return fmt.Errorf("at least one of -courses or -rooms is required")
	}

	src := service.SeedSource{CoursesName: *coursesPath, RoomsName: *roomsPath}
	if *roomsPath != "" {
		f, err := os.Open(*roomsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		src.Rooms = f
	}
	if *coursesPath != "" {
		f, err := os.Open(*coursesPath)
		if err != nil {
			return err
		}
		defer f.Close()
		src.Courses = f
	}

	svc := service.NewSeedService(repository.NewCourseRepository(a.db), repository.NewRoomRepository(a.db), a.db, a.validate, a.logger)
	report, err := svc.Import(ctx, src)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, report)
}

func (a *app) schedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	var req dto.ScheduleExamsRequest
	fs.StringVar(&req.StartDate, "start", "", "First exam date (YYYY-MM-DD); defaults to next Monday")
	fs.StringVar(&req.EndDate, "end", "", "Last exam date (YYYY-MM-DD); defaults to start + 6 days")
	fs.IntVar(&req.SlotsPerDay, "slots", 0, "Slots per day, 4 or 5; defaults to 4")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scheduler, err := a.scheduler()
	if err != nil {
		return err
	}
	result, err := scheduler.Schedule(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, result.Message)
	if err := printJSON(os.Stdout, result); err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("scheduling aborted")
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", service.ExportFormatCSV, "Output format: csv or pdf")
	out := fs.String("out", "", "Output file; defaults to a timestamped name in the working directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scheduler, err := a.scheduler()
	if err != nil {
		return err
	}
	svc := service.NewExportService(scheduler, nil, nil, a.validate, a.logger)
	file, err := svc.Export(ctx, dto.ExportQuery{Format: *format})
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = file.Filename
	}
	if err := os.WriteFile(path, file.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(file.Body), path)
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
