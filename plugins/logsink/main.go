// logsink is the reference notification sink: it appends every delivered
// status frame as one JSON line to a file, which doubles as a test fixture
// for the sink host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-plugin"

	sinkrpc "statusrelay/internal/modules/sink/adapter/out/rpc"
)

type server struct {
	path string
}

func (s *server) GetMetadata(_ context.Context, _ *sinkrpc.Empty) (*sinkrpc.Metadata, error) {
	return &sinkrpc.Metadata{Name: "logsink", Version: "1.0.0"}, nil
}

func (s *server) Deliver(_ context.Context, in *sinkrpc.DeliverRequest) (*sinkrpc.DeliverResponse, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open frame log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	return &sinkrpc.DeliverResponse{Accepted: true}, nil
}

func main() {
	path := os.Getenv("LOGSINK_PATH")
	if path == "" {
		path = "frames.jsonl"
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: sinkrpc.HandshakeConfig,
		Plugins:         sinkrpc.SinkMap(&server{path: path}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
