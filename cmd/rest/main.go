package main

import (
	"context"
	"log"

	"capital-research-be/internal/bootstrap"
	"capital-research-be/internal/config"
	"capital-research-be/internal/server"
	"capital-research-be/internal/tracer"
)

func main() {
	shutdown := tracer.InitTracer()
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)

	if err := container.TelemetryService.Consume(context.Background()); err != nil {
		log.Fatalf("failed to start telemetry consumer: %v", err)
	}

	srv := server.New(cfg, container)
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
