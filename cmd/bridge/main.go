// Command bridge runs the MQTT-to-browser meshtastic bridge: it connects to
// an MQTT broker carrying the Meshtastic wire format, serves browser
// WebSocket connections, and fans decoded traffic between the two.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/bridge"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/broker"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("loading config", "err", err)
	}

	var listenAddr, level string
	flag.StringVar(&cfg.BrokerURL, "server", cfg.BrokerURL, "MQTT server")
	flag.StringVar(&cfg.Username, "username", cfg.Username, "MQTT username")
	flag.StringVar(&cfg.Password, "password", cfg.Password, "MQTT password")
	flag.StringVar(&cfg.Root, "root", cfg.Root, "MQTT topic root")
	flag.StringVar(&cfg.Region, "region", cfg.Region, "MQTT topic region")
	flag.StringVar(&cfg.DefaultChannel, "channel", cfg.DefaultChannel, "default channel to subscribe on first connect")
	flag.StringVar(&cfg.GatewayID, "gateway", cfg.GatewayID, "outbound gateway node id")
	flag.StringVar(&listenAddr, "listen", ":8765", "HTTP/WebSocket listen address")
	flag.StringVar(&level, "level", "info", "log level")
	flag.Parse()

	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Fatal("failed to parse log level", "level", level, "err", err)
	}

	brk := broker.NewPahoBroker(broker.Options{
		ServerURL: cfg.BrokerURL,
		Username:  cfg.Username,
		Password:  cfg.Password,
		ClientID:  broker.DefaultClientID(time.Now()),
	})
	b := bridge.New(cfg, brk)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.ServeWS)
	server := &http.Server{Addr: listenAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		b.Close()
	}()

	go func() {
		log.Info("connecting to broker", "server", cfg.BrokerURL)
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("broker connection failed", "err", err)
		}
	}()

	log.Info("listening", "addr", listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server failed", "err", err)
	}
}
