package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/app"
	"github.com/Spok95/school-notify/internal/config"
	"github.com/Spok95/school-notify/internal/contacts"
	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/email"
	"github.com/Spok95/school-notify/internal/gateway"
	"github.com/Spok95/school-notify/internal/jobs"
	"github.com/Spok95/school-notify/internal/logging"
	"github.com/Spok95/school-notify/internal/observability"
	"github.com/Spok95/school-notify/internal/session"
	"github.com/Spok95/school-notify/internal/template"
	"github.com/Spok95/school-notify/internal/webhook"
	"github.com/Spok95/school-notify/internal/workflow"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("нет .env, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("логгер: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry не инициализирован", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("подключение к БД", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Base.Fatal("миграции", zap.Error(err))
	}

	// шлюз: боевой HTTP-провайдер или telegram для школ без WhatsApp
	var gw gateway.Client
	switch cfg.GatewayDriver {
	case "telegram":
		gw, err = gateway.NewTelegramClient(cfg.TelegramBotToken)
		if err != nil {
			lg.Base.Fatal("telegram-шлюз", zap.Error(err))
		}
	default:
		gw = gateway.NewHTTPClient(gateway.Credentials{
			BaseURL:  cfg.GatewayBaseURL,
			Token:    cfg.GatewayToken,
			Secret:   cfg.GatewaySecret,
			DeviceID: cfg.GatewayDeviceID,
		})
	}

	var mail email.Sender
	if cfg.SendGridKey != "" {
		mail = email.NewSendGrid(cfg.SendGridKey, cfg.EmailFromName, cfg.EmailFrom)
	} else {
		mail = email.NewConsole(lg.Base)
	}

	tpls := template.NewService(database, lg.Base)
	dir := contacts.NewDirectory(database, lg.Base)
	dispatcher := dispatch.New(database, gw, tpls, dir, lg.Base, dispatch.Config{
		DeviceID:   cfg.GatewayDeviceID,
		SchoolName: cfg.SchoolName,
		Language:   cfg.Language,
		Location:   cfg.Location,
	})
	engine := workflow.NewEngine(database, dispatcher, mail, lg.Base)

	machine := session.NewMachine(database, lg.Base)
	machine.OnTrigger(engine.HandleTrigger)

	// проверка связи со шлюзом на старте; неуспех не фатален,
	// health-проба будет дёргать дальше
	if info, err := gw.TestConnection(ctx); err != nil {
		lg.Base.Warn("шлюз недоступен на старте", zap.Error(err))
	} else {
		lg.Base.Info("шлюз на связи",
			zap.String("device", info.DeviceID),
			zap.String("name", info.Name))
	}

	wh := webhook.NewHandler(database, lg.Base, cfg.WebhookToken, cfg.GatewayDeviceID)
	app.StartHTTP(ctx, cfg.HTTPAddr, database, machine, dispatcher, wh, cfg.Location, cfg.GatewayDeviceID)

	runner := jobs.New(ctx)
	runner.Every(cfg.RetrySweepEvery, "retry_sweep",
		jobs.RetrySweep(database, dispatcher, lg.Base, cfg.MaxRetries, 100))
	runner.Every(cfg.ProbeEvery, "health_probe",
		jobs.HealthProbe(database, gw, cfg.GatewayDeviceID))
	runner.Every(24*time.Hour, "retention",
		jobs.RetentionSweep(database, lg.Base, cfg.RetentionKeep))

	if _, err := jobs.StartScheduler(ctx, database, engine, lg.Base); err != nil {
		lg.Base.Warn("cron-воркфлоу не запущены", zap.Error(err))
	}

	lg.Base.Info("school-notify запущен",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("gateway", cfg.GatewayDriver))

	<-ctx.Done()
	lg.Base.Info("остановка")
}
