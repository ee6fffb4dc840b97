package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/cyclist/internal/config"
	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/mqtt"
	"github.com/AaronLay10/cyclist/internal/preview"
	"github.com/AaronLay10/cyclist/internal/scene"
	"github.com/AaronLay10/cyclist/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "generation.yaml", "generation config file")
	envFile := flag.String("env", ".env", "environment file")
	logLevel := flag.String("log-level", "info", "minimum level of events written to stdout")
	flag.Parse()

	events.SetOutput(os.Stdout, *logLevel)

	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}
	cfg, err := config.LoadGenerationConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *configPath, err)
	}
	seed := cfg.SeedValue()
	params, err := cfg.Params()
	if err != nil {
		log.Fatalf("invalid generation config: %v", err)
	}

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "generator starting", map[string]interface{}{
		"service":  "generator",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"seed":     seed,
		"split":    params.Split,
		"scenes":   cfg.NumberOfVideos,
	})

	for _, dir := range []string{cfg.Output.VideoDir, cfg.Output.BlendDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	records, err := scene.NewRecordStore(cfg.Output.SceneConfigDir)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *postgres.Client
	if cfg.Postgres.Enabled {
		pg, err = postgres.New(cfg.Postgres.Dataset)
		if err != nil {
			log.Printf("postgres unavailable, continuing without it: %v", err)
		} else {
			events.SetPostgresClient(pg)
			defer pg.Close()
		}
	}

	var previewer *preview.Previewer
	if cfg.Preview.Enabled {
		previewer, err = preview.New(cfg.Preview.Directory, cfg.Preview.Width, cfg.Preview.Every)
		if err != nil {
			log.Fatalf("preview: %v", err)
		}
	}

	var (
		dispatcher *mqtt.RenderDispatcher
		tracker    *mqtt.JobTracker
		monitor    *mqtt.Monitor
	)
	if cfg.MQTT.Broker != "" || os.Getenv("MQTT_URL") != "" {
		client := mqtt.NewClient(mqtt.BrokerURL(cfg.MQTT.Broker), cfg.MQTT.ClientID)
		if err := client.Connect(); err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer client.Disconnect()

		timeout, _ := cfg.RenderTimeout()
		tracker = mqtt.NewJobTracker()
		dispatcher = mqtt.NewRenderDispatcher(client, tracker, records, cfg.MQTT.Prefix)
		dispatcher.OnFinalized = func(s *scene.Scene) { saveScene(pg, s) }
		if err := dispatcher.Listen(); err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		monitor = mqtt.NewMonitor(tracker, timeout)
		monitor.Start(time.Minute)
		defer monitor.Stop()
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := cfg.SceneIndexOffset; i < cfg.SceneIndexOffset+cfg.NumberOfVideos; i++ {
		index := i
		g.Go(func() error {
			gen, err := scene.NewGenerator(params, index)
			if err != nil {
				return err
			}
			s, err := gen.Generate(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				return nil
			}

			// Without a renderer the configured directions are final.
			if dispatcher == nil {
				scene.Finalize(s, nil)
			}
			if err := records.Save(s); err != nil {
				return err
			}
			events.Emit("info", "scene.written", "", map[string]interface{}{
				"scene_index": s.Index,
				"file":        s.SceneConfigFile,
			})
			saveScene(pg, s)

			if previewer != nil {
				if _, err := previewer.Write(s); err != nil {
					log.Printf("preview of scene %d failed: %v", s.Index, err)
				}
			}
			if dispatcher != nil {
				if err := dispatcher.Dispatch(s); err != nil {
					log.Printf("dispatch of scene %d failed: %v", s.Index, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("generation stopped: %v", err)
	}

	if tracker != nil {
		waitForRenders(ctx, tracker)
	}

	events.Emit("info", "system.shutdown", "generator finished", map[string]interface{}{
		"scenes": cfg.NumberOfVideos,
		"failed": failed.Load(),
	})
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func saveScene(pg *postgres.Client, s *scene.Scene) {
	if pg == nil {
		return
	}
	record, err := json.Marshal(s)
	if err != nil {
		log.Printf("failed to encode scene %d: %v", s.Index, err)
		return
	}
	if err := pg.SaveScene(s.Split, s.Index, s.Rendered, record); err != nil {
		log.Printf("failed to store scene %d: %v", s.Index, err)
	}
}

// waitForRenders blocks until every dispatched job completed or expired.
func waitForRenders(ctx context.Context, tracker *mqtt.JobTracker) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for tracker.Len() > 0 {
		select {
		case <-ctx.Done():
			log.Printf("interrupted with %d renders pending", tracker.Len())
			return
		case <-ticker.C:
		}
	}
}
