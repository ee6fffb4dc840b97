package main

import (
	"flag"
	"log"
	"os"

	"github.com/AaronLay10/cyclist/internal/api"
	"github.com/AaronLay10/cyclist/internal/config"
	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/question"
	"github.com/AaronLay10/cyclist/internal/scene"
	"github.com/AaronLay10/cyclist/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "generation.yaml", "generation config file")
	envFile := flag.String("env", ".env", "environment file")
	flag.Parse()

	events.SetOutput(os.Stdout, "info")
	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}
	cfg, err := config.LoadGenerationConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *configPath, err)
	}

	records, err := scene.NewRecordStore(cfg.Output.SceneConfigDir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	api.SetRecordsReady(true)
	api.SetMQTTState(false, true)

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres.Dataset)
		if err != nil {
			log.Printf("postgres unavailable, continuing without it: %v", err)
			api.SetPostgresState(false, true)
		} else {
			defer pg.Close()
			events.SetPostgresClient(pg)
			api.SetPostgresState(true, false)
		}
	} else {
		api.SetPostgresState(false, true)
	}

	if err := api.InitAuth(); err != nil {
		log.Fatalf("auth: %v", err)
	}
	api.InitTLS()
	api.InitMetrics(cfg.Postgres.Dataset)

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "api starting", map[string]interface{}{
		"service":  "api",
		"hostname": hostname,
		"port":     cfg.API.Port,
		"auth":     api.IsAuthEnabled(),
		"tls":      api.IsTLSEnabled(),
	})

	srv := api.NewServer(records, question.NewEngine(), cfg.Output.Split)
	if err := srv.ListenAndServe(cfg.API.Port); err != nil {
		log.Fatalf("api server failed: %v", err)
	}
}
