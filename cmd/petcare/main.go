package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"petcare/internal/bot"
	"petcare/internal/clock"
	"petcare/internal/config"
	"petcare/internal/logging"
	"petcare/internal/repository"
	"petcare/internal/service"
)

const jobTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console")
		bootLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(cfg.DatabaseURL, logging.Gorm(log))
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	animalRepo := repository.NewAnimalRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram")
	}

	clk := clock.System{Location: cfg.Location}
	sender := bot.NewSender(api)
	reminderSvc := service.NewReminderService(reminderRepo, taskRepo, animalRepo, userRepo, sender, cfg.SendRatePerSec, clk, log)
	taskSvc := service.NewTaskScheduler(taskRepo, reminderSvc, clk, log)
	animalSvc := service.NewAnimalService(animalRepo, taskSvc)

	telegramBot := bot.New(api, userRepo, animalSvc, taskSvc, reminderSvc, clk, log)

	scheduler := service.NewSchedulerService(ctx, cfg.Location, log)
	if _, err := scheduler.ScheduleInterval("dispatch_reminders", cfg.ReminderPollInterval, jobTimeout, func(ctx context.Context) error {
		sent, err := reminderSvc.DispatchDue(ctx)
		if sent > 0 {
			log.Info().Int("sent", sent).Msg("reminders delivered")
		}
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule reminders")
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily("daily_digest", cfg.DigestTime, 5*jobTimeout, reminderSvc.SendDailyDigests); err != nil {
			log.Fatal().Err(err).Msg("schedule digest")
		}
	}
	scheduler.Start()

	log.Info().Str("db", cfg.DatabaseURL).Str("tz", cfg.Location.String()).Msg("pet care bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped with error")
	}

	scheduler.Stop()
	taskSvc.Wait()
	log.Info().Msg("shutdown complete")
}
