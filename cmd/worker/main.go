package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classattend/internal/config"
	"classattend/internal/notify"
	"classattend/internal/queue"
	"classattend/internal/store"
)

const deliveryAttempts = 3

// Worker drains queued absence alerts and delivers them to the WhatsApp
// webhook. Delivery is best-effort: bounded retries, then the alert is
// dropped with a log line and a counter bump. A dropped alert never affects
// the stored attendance.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classattend:absences")
	}

	sender := notify.New(cfg.WebhookURL, cfg.WebhookToken, cfg.NotifySkip)
	if cfg.NotifySkip {
		log.Println("notify skip enabled; alerts will be acked without sending")
	}

	// Metrics for the delivery counters.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9091", mux); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics listener failed: %v", err)
		}
	}()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for absence alerts...")
	for msg := range messages {
		if msg.Type != queue.TypeAbsence {
			continue
		}

		alert, err := queue.DecodeAbsence(msg)
		if err != nil {
			log.Printf("dropping malformed alert: %v", err)
			continue
		}

		deliver(ctx, sender, alert)
	}

	log.Println("worker stopped")
}

func deliver(ctx context.Context, sender *notify.Client, alert notify.AbsenceAlert) {
	var err error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		err = sender.SendAbsenceAlert(ctx, alert)
		if err == nil {
			notify.AlertsSent.Inc()
			log.Printf("absence alert delivered for %s (%s)", alert.StudentName, alert.PeriodName)
			return
		}
		log.Printf("alert delivery attempt %d/%d failed: %v", attempt, deliveryAttempts, err)
		if attempt < deliveryAttempts {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
	notify.AlertsFailed.Inc()
	log.Printf("absence alert dropped for %s after %d attempts: %v", alert.StudentName, deliveryAttempts, err)
}
