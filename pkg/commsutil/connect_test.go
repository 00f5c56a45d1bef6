package commsutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "test-client")
	if err == nil {
		if nc != nil {
			nc.Close()
		}
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnect_EmbeddedServer(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	defer ns.Shutdown()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatalf("%s - server not ready", connectTestPrefix)
	}

	nc, err := Connect(ns.ClientURL(), "mapperd-test", comms.NoEcho())
	if err != nil {
		t.Fatalf("%s - connect failed: %v", connectTestPrefix, err)
	}
	defer nc.Close()

	if !nc.IsConnected() {
		t.Errorf("%s - expected connected client", connectTestPrefix)
	}
	if nc.Opts.Name != "mapperd-test" {
		t.Errorf("%s - Name = %q", connectTestPrefix, nc.Opts.Name)
	}
	if !nc.Opts.NoEcho {
		t.Errorf("%s - expected extra option to be applied", connectTestPrefix)
	}
}
