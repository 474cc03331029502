package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/strefethen/sonos-mqtt-go/internal/bridge"
	"github.com/strefethen/sonos-mqtt-go/internal/config"
	"github.com/strefethen/sonos-mqtt-go/internal/media"
	"github.com/strefethen/sonos-mqtt-go/internal/mqttbus"
	"github.com/strefethen/sonos-mqtt-go/internal/server"
	"github.com/strefethen/sonos-mqtt-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	addr := cfg.Host + ":" + cfg.Port

	db, err := store.Init(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	defer db.Close()
	repo := store.NewSpeakerRepository(db)

	bus, err := mqttbus.Connect(mqttbus.Options{
		BrokerURLs:     cfg.BrokerURLs,
		ClientIDPrefix: cfg.ClientIDPrefix,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
	})
	if err != nil {
		log.Fatalf("MQTT connect error: %v", err)
	}
	defer bus.Close()

	hub := server.NewHub()
	manager := bridge.NewManager(bus, hub, repo, bridge.Options{
		DiscoveryTopic: cfg.DiscoveryTopic,
		StaleAfter:     time.Duration(cfg.AvailabilityStaleSec) * time.Second,
		SweepSchedule:  cfg.SweepSchedule,
	})
	if err := manager.Start(); err != nil {
		log.Fatalf("bridge start error: %v", err)
	}
	defer manager.Close()

	// Without a resolver endpoint, media-source playback reports content
	// as unavailable.
	var resolver media.Resolver
	if cfg.MediaResolverURL != "" {
		resolver = media.NewHTTPResolver(media.HTTPResolverConfig{BaseURL: cfg.MediaResolverURL})
	}
	mediaRouter := media.NewRouter(resolver)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewHandler(manager, mediaRouter, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("sonos-mqtt listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
