package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/docuchat/gateway/internal/config"
	"github.com/docuchat/gateway/internal/extract"
	"github.com/docuchat/gateway/internal/files"
	"github.com/docuchat/gateway/internal/logging"
	"github.com/docuchat/gateway/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New("worker")

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("cannot create database directory")
		}
	}
	gdb, err := gorm.Open(gormsqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("cannot open database")
	}
	if err := gdb.AutoMigrate(&files.File{}, &files.ExtractionJob{}); err != nil {
		log.Fatal().Err(err).Msg("automigrate failed")
	}

	extractor := extract.New(extract.NewOCRClient(cfg.OCRServiceURL))
	svc := files.NewService(files.NewRepo(gdb), extractor, nil, log)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial failed")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel failed")
	}
	defer ch.Close()

	// Same topology the publisher declares; whoever starts first wins.
	if _, err := ch.QueueDeclare(cfg.RabbitQueue+".dlq", true, false, false, false, nil); err != nil {
		log.Fatal().Err(err).Msg("dlq declare failed")
	}
	if _, err := ch.QueueDeclare(cfg.RabbitQueue+".retry", true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue,
	}); err != nil {
		log.Fatal().Err(err).Msg("retry queue declare failed")
	}
	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	}); err != nil {
		log.Fatal().Err(err).Msg("queue declare failed")
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos failed")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warn().Int("worker", workerID).Err(err).Msg("bad message")
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.RunJob(ctx, m.JobID); err != nil {
					log.Error().Int("worker", workerID).Str("job_id", m.JobID).Dur("cost", time.Since(start)).Err(err).Msg("job failed")
					_ = d.Nack(false, false)
					continue
				}
				log.Info().Int("worker", workerID).Str("job_id", m.JobID).Dur("cost", time.Since(start)).Msg("job done")

				if err := d.Ack(false); err != nil {
					log.Warn().Int("worker", workerID).Str("job_id", m.JobID).Err(err).Msg("ack failed")
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
