// outbox-relay drains pending outbox rows to Kafka. Checkout writes events
// inside its transaction; this process is the only thing that talks to the
// broker, so a broker outage never fails a checkout.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ashrafalve/ecommerce-store-go/internal/storage/postgres"
	"github.com/ashrafalve/ecommerce-store-go/pkg/kafka"
	"github.com/ashrafalve/ecommerce-store-go/pkg/logging"
	"github.com/ashrafalve/ecommerce-store-go/pkg/metrics"
	"github.com/ashrafalve/ecommerce-store-go/pkg/outbox"
)

type cfg struct {
	Port         string
	DatabaseURL  string
	KafkaBrokers string
	PollInterval time.Duration
	BatchSize    int
}

func readCfg() (cfg, error) {
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if db == "" {
		return cfg{}, errors.New("DATABASE_URL is required")
	}
	pollMS, _ := strconv.Atoi(getenv("POLL_INTERVAL_MS", "1000"))
	batch, _ := strconv.Atoi(getenv("BATCH_SIZE", "100"))
	return cfg{
		Port:         getenv("PORT", "8081"),
		DatabaseURL:  db,
		KafkaBrokers: getenv("KAFKA_BROKERS", ""),
		PollInterval: time.Duration(pollMS) * time.Millisecond,
		BatchSize:    batch,
	}, nil
}

func main() {
	cfg, err := readCfg()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer pool.Close()

	client := kafka.NewClient(cfg.KafkaBrokers)
	if client.Enabled() {
		go relay(pool, client, cfg)
	} else {
		log.Print("KAFKA_BROKERS empty, relay idle")
	}

	srvMetrics := metrics.NewServerMetrics("outbox_relay")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := http.StatusOK
		body := `{"status":"ok"}`
		if err := pool.Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body = `{"status":"db_error"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		srvMetrics.Requests.WithLabelValues("health", strconv.Itoa(status)).Inc()
		srvMetrics.LatencyMS.WithLabelValues("health").Observe(float64(time.Since(start).Milliseconds()))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("outbox-relay listening on :%s", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}

func relay(pool *pgxpool.Pool, client *kafka.Client, cfg cfg) {
	writers := map[string]*kafkago.Writer{}
	for {
		time.Sleep(cfg.PollInterval)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pending, err := outbox.FetchPending(ctx, pool, cfg.BatchSize)
		if err != nil {
			cancel()
			logging.Log(logging.Fields{Service: "outbox_relay", Step: "fetch", Status: "error", Message: err.Error()})
			continue
		}

		for _, rec := range pending {
			w, ok := writers[rec.Topic]
			if !ok {
				w = client.NewWriter(rec.Topic)
				writers[rec.Topic] = w
			}
			if err := kafka.Publish(ctx, w, rec.Key, rec.Payload); err != nil {
				logging.Log(logging.Fields{Service: "outbox_relay", EventID: rec.EventID, Step: "publish", Status: "error", Message: err.Error()})
				break
			}
			if err := outbox.MarkSent(ctx, pool, rec.ID); err != nil {
				logging.Log(logging.Fields{Service: "outbox_relay", EventID: rec.EventID, Step: "mark_sent", Status: "error", Message: err.Error()})
				break
			}
			logging.Log(logging.Fields{Service: "outbox_relay", EventID: rec.EventID, Step: "publish", Status: "sent"})
		}
		cancel()
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
