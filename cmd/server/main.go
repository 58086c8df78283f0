// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	"github.com/lipanasa/reminders-backend/internal/channel"
	"github.com/lipanasa/reminders-backend/internal/config"
	"github.com/lipanasa/reminders-backend/internal/controller"
	"github.com/lipanasa/reminders-backend/internal/db"
	"github.com/lipanasa/reminders-backend/internal/handler"
	"github.com/lipanasa/reminders-backend/internal/lock"
	"github.com/lipanasa/reminders-backend/internal/model"
	"github.com/lipanasa/reminders-backend/internal/queue"
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	// Init DB
	db.Init()

	// Redis is optional; without it the run lock falls back to PG
	// advisory locks.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	// RabbitMQ carries manual reminder jobs to cmd/worker.
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()
	q, err := queue.NewAMQPQueue(conn)
	if err != nil {
		log.Fatal("Failed to set up queue:", err)
	}

	settingsRepo := &repository.SettingsRepository{DB: db.DB}
	customerRepo := &repository.CustomerRepository{DB: db.DB}
	invoiceRepo := &repository.InvoiceRepository{DB: db.DB}
	eventRepo := &repository.ReminderEventRepository{DB: db.DB}
	funnelRepo := &repository.FunnelRepository{DB: db.DB}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	endpoints := channel.Endpoints{
		WhatsAppBaseURL: cfg.WhatsAppBaseURL,
		EmailBaseURL:    cfg.EmailBaseURL,
		SMSBaseURL:      cfg.SMSBaseURL,
	}

	reminderService := &service.ReminderService{
		SettingsRepo: settingsRepo,
		CustomerRepo: customerRepo,
		InvoiceRepo:  invoiceRepo,
		EventRepo:    eventRepo,
		Delivery:     &service.DeliveryPolicy{Endpoints: endpoints, Client: httpClient},
		Queue:        q,
		RunLock:      lock.New(redisClient, db.DB, "process-reminders", cfg.RunLockTTL),
	}

	funnelService := &service.FunnelService{
		FunnelRepo: funnelRepo,
		Senders:    platformSenders(cfg, endpoints, httpClient),
		RunLock:    lock.New(redisClient, db.DB, "process-trial-funnel", cfg.RunLockTTL),
	}

	jobController := &controller.JobController{
		ReminderService: reminderService,
		FunnelService:   funnelService,
	}

	reminderHandler := &handler.ReminderHandler{
		EventRepo:       eventRepo,
		ReminderService: reminderService,
	}

	r := chi.NewRouter()

	// Scheduler job triggers (external cron or dashboard "run now")
	r.Post("/jobs/process-reminders", jobController.ProcessReminders)
	r.Post("/jobs/process-trial-funnel", jobController.ProcessTrialFunnel)

	// Manual reminders + dashboard data
	r.Post("/reminders/manual", reminderHandler.SendManualReminder)
	r.Get("/tenants/{id}/reminder-events", reminderHandler.ListReminderEvents)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

// platformSenders builds the funnel's senders from the platform's own
// credentials. A channel missing its credentials is left out.
func platformSenders(cfg *config.Config, ep channel.Endpoints, client *http.Client) map[string]channel.Sender {
	senders := map[string]channel.Sender{}
	if cfg.PlatformWhatsAppToken != "" && cfg.PlatformWhatsAppSenderID != "" {
		senders[model.ChannelWhatsApp] = channel.NewWhatsAppSender(
			ep.WhatsAppBaseURL, cfg.PlatformWhatsAppToken, cfg.PlatformWhatsAppSenderID, client)
	}
	if cfg.PlatformEmailAPIKey != "" && cfg.PlatformEmailFrom != "" {
		senders[model.ChannelEmail] = channel.NewEmailSender(
			ep.EmailBaseURL, cfg.PlatformEmailAPIKey, cfg.PlatformEmailFrom, client)
	}
	cred := repository.SplitSMSCredential(cfg.PlatformSMSCredential)
	if cred.AccountSID != "" && cred.AuthToken != "" && cfg.PlatformSMSFrom != "" {
		senders[model.ChannelSMS] = channel.NewSMSSender(
			ep.SMSBaseURL, cred, cfg.PlatformSMSFrom, client)
	}
	return senders
}
