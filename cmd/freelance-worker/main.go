package main

import (
	"context"
	"os"
	"time"

	"freelance/internal/amqp"
	"freelance/internal/cli"
	"freelance/internal/mail"
	"freelance/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	reconnectDelay  = 5 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	mailer, err := mail.FromConfig(cfg, logger.Logger)
	if err != nil {
		logger.Error("Invalid mail configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("Starting freelance-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"smtp", cfg.SMTPHost != "")
	relay := worker.NewRelay(mailer, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	for ctx.Err() == nil {
		err := consume(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, relay.Handlers())
		if ctx.Err() != nil {
			break
		}
		logger.Error("Message consumption failed, reconnecting", "error", err, "delay", reconnectDelay)

		select {
		case <-ctx.Done():
		case <-time.After(reconnectDelay):
		}
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

func consume(ctx context.Context, url, exchange, queue string, h amqp.Handlers) error {
	consumer, err := amqp.NewConsumer(url, exchange, queue)
	if err != nil {
		return err
	}
	defer consumer.Close()
	return consumer.Consume(ctx, h)
}
