package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendoredge/config"
	"vendoredge/engine"
	"vendoredge/messaging"
	"vendoredge/store"
	"vendoredge/www"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "vendoredge.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *port > 0 {
		cfg.Web.Port = *port
	}

	// Open database
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := www.EnsureDefaultOperator(db); err != nil {
		log.Fatalf("seed operator: %v", err)
	}

	// Decision audit trail: rows go to the outbox regardless of broker state
	audit := messaging.NewAuditRecorder(db, cfg.VendorID, cfg.NodeID(), cfg.Messaging.AuditTopic)

	// Create and start engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		LogFunc:    log.Printf,
		Debug:      *debug,
		Audit:      audit,
	})
	eng.Start()
	defer eng.Stop()

	// Set up audit messaging
	if cfg.Messaging.MQTT.ClientID == "" {
		cfg.Messaging.MQTT.ClientID = "vendoredge-" + cfg.NodeID()
	}
	msgClient := messaging.NewClient(&cfg.Messaging)
	defer msgClient.Close()
	if err := msgClient.Connect(); err != nil {
		log.Printf("messaging connect: %v (decisions will wait in outbox)", err)
	}

	drainer := messaging.NewOutboxDrainer(db, msgClient, &cfg.Messaging)
	drainer.Start()
	defer drainer.Stop()

	hb := messaging.NewHeartbeater(msgClient, cfg.VendorID, cfg.NodeID(), version,
		cfg.Messaging.AuditTopic, eng.SessionActive)
	hb.Start()
	defer hb.Stop()

	// Set up HTTP server
	router, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("vendoredge console listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Stop SSE event hub first so long-lived connections close
	stopWeb()

	// Graceful HTTP shutdown with 10s deadline
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
