// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/lipanasa/reminders-backend/internal/channel"
	"github.com/lipanasa/reminders-backend/internal/config"
	"github.com/lipanasa/reminders-backend/internal/db"
	"github.com/lipanasa/reminders-backend/internal/queue"
	"github.com/lipanasa/reminders-backend/internal/repository"
	"github.com/lipanasa/reminders-backend/internal/service"
)

// The worker consumes queued manual reminder jobs and performs the delivery,
// so the API can answer immediately after recording the pending event.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	db.Init()

	reminderService := &service.ReminderService{
		SettingsRepo: &repository.SettingsRepository{DB: db.DB},
		CustomerRepo: &repository.CustomerRepository{DB: db.DB},
		InvoiceRepo:  &repository.InvoiceRepository{DB: db.DB},
		EventRepo:    &repository.ReminderEventRepository{DB: db.DB},
		Delivery: &service.DeliveryPolicy{
			Endpoints: channel.Endpoints{
				WhatsAppBaseURL: cfg.WhatsAppBaseURL,
				EmailBaseURL:    cfg.EmailBaseURL,
				SMSBaseURL:      cfg.SMSBaseURL,
			},
			Client: &http.Client{Timeout: cfg.HTTPTimeout},
		},
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.ReminderSendsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job queue.SendJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			err := reminderService.DeliverPending(context.Background(), job.ReminderEventID)
			if err != nil {
				log.Println("Failed to deliver reminder:", err)
				// Retry logic: requeue up to 3 times
				var retryCount int
				if d.Headers["x-retry-count"] != nil {
					retryCount, _ = d.Headers["x-retry-count"].(int)
				}
				if retryCount < 3 {
					d.Nack(false, true) // requeue
					continue
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for reminder jobs...")
	<-forever
}
