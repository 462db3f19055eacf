package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gridfall/internal/api"
	"gridfall/internal/config"
	"gridfall/internal/registry"
	"gridfall/internal/script"
	"gridfall/internal/world"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found, using environment variables only")
		}
	} else {
		log.Println("loaded environment from ../.env")
	}

	log.Println("================================")
	log.Println(" GRIDFALL - WORLD SERVER")
	log.Println("================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	cfg := config.Load()
	port := strconv.Itoa(cfg.Server.Port)

	// Player registry: remote service when configured, in-memory otherwise
	var reg world.PlayerRegistry
	if cfg.Registry.URL != "" {
		client := registry.NewClient(cfg.Registry.URL, registry.ClientOptions{
			Timeout: cfg.Registry.Timeout,
		})
		log.Printf("player registry: %s", client)
		reg = client
	} else {
		log.Println("player registry: in-memory (set REGISTRY_URL for a remote one)")
		reg = registry.NewMemory()
	}

	mgr := world.NewManager(cfg.World.ManagerID, reg)
	log.Printf("world manager %d ready", mgr.ID())

	// Event log records spawns, despawns and dispatches
	eventLog := world.NewEventLog()
	if cfg.World.EventLogPath != "" {
		if err := eventLog.Start(cfg.World.EventLogPath); err != nil {
			log.Printf("event log disabled: %v", err)
		} else {
			log.Printf("event log: %s", cfg.World.EventLogPath)
		}
	}

	// Manager callbacks feed the event log and the metrics gauges
	hooks := eventLog.Hooks(mgr.ID())
	mgr.SetCallbacks(world.Callbacks{
		OnSpawn: func(id int, e *world.Entity) {
			if hooks.OnSpawn != nil {
				hooks.OnSpawn(id, e)
			}
			api.UpdateEntityCount(mgr.Len())
		},
		OnDespawn: func(id int) {
			if hooks.OnDespawn != nil {
				hooks.OnDespawn(id)
			}
			api.UpdateEntityCount(mgr.Len())
		},
		OnEvent: hooks.OnEvent,
	})

	// Start debug server
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	// Bootstrap script populates the world before the API opens
	if cfg.World.BootstrapLua != "" {
		host := script.NewHost(mgr)
		if err := host.RunFile(cfg.World.BootstrapLua); err != nil {
			log.Fatalf("bootstrap script failed: %v", err)
		}
		log.Printf("bootstrap script %s spawned %d entities", cfg.World.BootstrapLua, mgr.Len())
	}

	// Tick loop broadcasts a tick event at the configured rate
	stopTicks := make(chan struct{})
	if cfg.World.TickRate > 0 {
		go runTickLoop(mgr, cfg.World.TickRate, stopTicks)
		log.Printf("tick loop: %d ticks/s", cfg.World.TickRate)
	}

	server := api.NewServer(api.ServerConfig{
		World:         mgr,
		SnapshotEvery: cfg.Server.SnapshotEvery,
	})

	// Start API server in goroutine
	go func() {
		addr := ":" + port
		log.Printf("API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("server ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	close(stopTicks)
	server.Stop()
	eventLog.Stop()
	log.Println("goodbye")
}

// runTickLoop broadcasts numbered tick events until stop is closed.
func runTickLoop(mgr *world.Manager, rate int, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var tick int64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			started := time.Now()
			mgr.Broadcast(world.EventTick, world.Int(tick))
			api.RecordTick(time.Since(started))
			api.IncrementEventsDispatched("tick")
			tick++
		}
	}
}
