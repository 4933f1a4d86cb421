package lobby

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	gonet "github.com/navalrts/server/internal/net"
	"github.com/navalrts/server/internal/net/packet"
)

// MatchProcess is a running match instance seen from the lobby.
type MatchProcess interface {
	// Send forwards one packet to the match. Safe for concurrent use.
	Send(p packet.Packet) error
	// Recv blocks for the next packet the match addressed to a client. It
	// returns an error once the match has exited.
	Recv() (packet.Packet, error)
	// Close stops the match and releases its resources.
	Close() error
}

// MatchSpawner starts match instances.
type MatchSpawner interface {
	Spawn(ctx context.Context, clients []packet.ClientID) (MatchProcess, error)
}

// defaultGrace is how long Close waits for a match to exit after its stdin
// closes.
const defaultGrace = 2 * time.Second

// ExecSpawner runs each match as a child process speaking framed msgpack
// over stdin/stdout: `<Path> <Args...> match`.
type ExecSpawner struct {
	Path     string // defaults to the running executable
	Args     []string
	MaxFrame int
	Grace    time.Duration // defaults to defaultGrace
	Log      *zap.Logger
}

func (s *ExecSpawner) Spawn(ctx context.Context, clients []packet.ClientID) (MatchProcess, error) {
	path := s.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		path = exe
	}
	args := append(append([]string(nil), s.Args...), "match")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start match: %w", err)
	}

	p := &execProcess{
		cmd:      cmd,
		stdin:    stdin,
		stdout:   bufio.NewReader(stdout),
		maxFrame: s.MaxFrame,
		grace:    s.Grace,
	}
	if p.grace <= 0 {
		p.grace = defaultGrace
	}
	frame, err := packet.Marshal(packet.MatchInit{Clients: clients})
	if err == nil {
		err = gonet.WriteFrame(stdin, frame)
	}
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("send match init: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("match process started", zap.Int("pid", cmd.Process.Pid))
	}
	return p, nil
}

type execProcess struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	maxFrame int
	grace    time.Duration

	mu        sync.Mutex // serializes stdin writes
	closeOnce sync.Once
	closeErr  error
}

func (p *execProcess) Send(pkt packet.Packet) error {
	data, err := packet.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("encode %s: %w", packet.OpcodeName(pkt.Op), err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return gonet.WriteFrame(p.stdin, data)
}

func (p *execProcess) Recv() (packet.Packet, error) {
	var pkt packet.Packet
	data, err := gonet.ReadFrame(p.stdout, p.maxFrame)
	if err != nil {
		return pkt, err
	}
	if err := packet.Unmarshal(data, &pkt); err != nil {
		return pkt, fmt.Errorf("decode match packet: %w", err)
	}
	return pkt, nil
}

// Close closes stdin and gives the match Grace to exit on its own before
// killing it, then reaps it.
func (p *execProcess) Close() error {
	p.closeOnce.Do(func() {
		p.stdin.Close()
		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case p.closeErr = <-done:
		case <-time.After(p.grace):
			_ = p.cmd.Process.Kill()
			p.closeErr = <-done
		}
	})
	return p.closeErr
}
