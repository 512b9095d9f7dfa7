// Standalone MQTT broker for trying the MQTT sink locally.
//
// Usage:
//
//	go run ./example/cmd/mockbroker
//
// Then in another terminal:
//
//	go run ./cmd/sensorboard serve -c example/config.yaml
//
// Every message published under sensorboard/ is printed to stdout.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

func main() {
	addr := flag.String("addr", ":1883", "listen address")
	filter := flag.String("filter", "sensorboard/#", "topic filter to print")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       logger,
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		slog.Error("failed to add auth hook", "error", err)
		os.Exit(1)
	}

	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "mockbroker",
		Address: *addr,
	})
	if err := server.AddListener(tcp); err != nil {
		slog.Error("failed to add listener", "error", err)
		os.Exit(1)
	}

	err := server.Subscribe(*filter, 1, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		fmt.Printf("%s %s\n", pk.TopicName, pk.Payload)
	})
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	if err := server.Serve(); err != nil {
		slog.Error("broker error", "error", err)
		os.Exit(1)
	}

	fmt.Printf("MQTT broker listening on %s, printing %s\n", *addr, *filter)
	fmt.Println("Press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	_ = server.Close()
}
