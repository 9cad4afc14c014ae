package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okovalenko/carebot/internal/bot"
	"github.com/okovalenko/carebot/internal/config"
	"github.com/okovalenko/carebot/internal/database"
	myopenai "github.com/okovalenko/carebot/internal/openai"
	"github.com/okovalenko/carebot/internal/scheduler"
	"github.com/okovalenko/carebot/internal/store"
	"github.com/okovalenko/carebot/internal/subscription"
	"github.com/okovalenko/carebot/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[carebot] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	users := store.NewUserStore(db)
	reminders := store.NewReminderStore(db)
	meds := store.NewMedicationStore(db)
	moods := store.NewMoodStore(db)
	limits := subscription.NewService(users, reminders, meds, moods)

	openAIClient := myopenai.New(cfg.OpenAIAPIKey)
	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber)
	messenger := bot.NewMessenger(users, twilioClient)

	sched := scheduler.New(reminders, meds, messenger, cfg.LocalTimezone, logger)
	sched.Start()
	if err := sched.Reconcile(); err != nil {
		logger.Fatalf("scheduler reconcile: %v", err)
	}

	careBot := bot.New(cfg, users, reminders, meds, moods, limits, sched, openAIClient, logger)
	http.Handle("/twilio/webhook", careBot.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: nil,
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, sched, logger)
}

func waitForShutdown(server *http.Server, sched *scheduler.Scheduler, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	sched.Stop()
}
