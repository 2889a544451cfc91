package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vietddude/signbridge/internal/core/tracker"
	"github.com/vietddude/signbridge/internal/infra/agent"
	"github.com/vietddude/signbridge/internal/resilience"
)

func main() {
	ctx := context.Background()

	// 1. Probe the plain loopback listener
	prober := agent.NewProber(agent.ProbeConfig{Secure: false})
	status := prober.Detect(ctx)
	fmt.Printf("Agent running: %t (port %d)\n", status.IsRunning, status.Port)

	if !status.IsRunning {
		log.Fatal("signing agent is not reachable on 127.0.0.1:64646")
	}

	// 2. Build a client with a tracker watching the connection lifecycle
	track := tracker.New()

	res := resilience.DefaultConfig()
	res.MaxRetries = 2
	res.BaseDelay = 500 * time.Millisecond

	client := agent.NewClient(agent.ClientConfig{
		Resilience: res,
		Tracker:    track,
	})

	// 3. Liveness round-trip
	version, err := client.Version(ctx)
	if err != nil {
		log.Fatalf("version check failed: %v", err)
	}
	fmt.Printf("Agent version: %s\n", version)

	// 4. Ask for the user-selected certificate and sign a digest with it
	cert, err := client.Certificate(ctx, "en")
	if err != nil {
		log.Fatalf("certificate selection failed: %v", err)
	}
	fmt.Printf("Certificate: %s\n", cert.Result)

	digest := agent.DigestSHA256([]byte("hello, agent"))
	sig, err := client.Sign(ctx, "default", digest, "SHA-256")
	if err != nil {
		log.Fatalf("signing failed: %v", err)
	}
	fmt.Printf("Signature: %s\n", sig.Result)

	fmt.Printf("Connection state: %s\n", track.State())
}
