package net

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/navalrts/server/internal/net/packet"
	"go.uber.org/zap"
)

// Pipe bridges a pair of blocking byte streams (the match process's stdin and
// stdout) to two bounded packet queues. Network I/O runs in dedicated
// goroutines; the game loop only touches In and Send.
type Pipe struct {
	r        io.Reader
	w        io.Writer
	maxFrame int

	in  chan packet.Packet // game loop reads packets from here
	out chan packet.Packet // writer goroutine reads from here

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}

	log *zap.Logger
}

func NewPipe(r io.Reader, w io.Writer, inSize, outSize, maxFrame int, log *zap.Logger) *Pipe {
	return &Pipe{
		r:        r,
		w:        w,
		maxFrame: maxFrame,
		in:       make(chan packet.Packet, inSize),
		out:      make(chan packet.Packet, outSize),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
	}
}

// ReadInit reads the initialization frame. It must be called before Start.
func (p *Pipe) ReadInit() (packet.MatchInit, error) {
	var init packet.MatchInit
	payload, err := ReadFrame(p.r, p.maxFrame)
	if err != nil {
		return init, fmt.Errorf("read match init: %w", err)
	}
	if err := packet.Unmarshal(payload, &init); err != nil {
		return init, fmt.Errorf("decode match init: %w", err)
	}
	return init, nil
}

// Start launches the reader and writer goroutines.
func (p *Pipe) Start() {
	go p.readLoop()
	go p.writeLoop()
}

// In is closed when the input stream ends.
func (p *Pipe) In() <-chan packet.Packet { return p.in }

// Send queues a packet without blocking. It returns false if the queue is
// full or the pipe is closed; the packet is then dropped.
func (p *Pipe) Send(pkt packet.Packet) bool {
	if p.closed.Load() {
		return false
	}
	select {
	case p.out <- pkt:
		return true
	default:
		return false
	}
}

// Close stops the writer after it drains whatever is already queued.
func (p *Pipe) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.closeCh)
	})
}

// Done is closed once the writer has flushed and exited.
func (p *Pipe) Done() <-chan struct{} { return p.done }

// readLoop reads frames, decodes the envelope and pushes packets onto the
// inbound queue, blocking while it is full.
func (p *Pipe) readLoop() {
	defer close(p.in)

	for {
		payload, err := ReadFrame(p.r, p.maxFrame)
		if errors.Is(err, ErrFrameTooLarge) {
			p.log.Warn("oversized frame dropped", zap.Error(err))
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				p.log.Info("input stream closed")
			} else {
				p.log.Warn("read error", zap.Error(err))
			}
			return
		}

		var pkt packet.Packet
		if err := packet.Unmarshal(payload, &pkt); err != nil {
			p.log.Warn("malformed packet dropped", zap.Error(err), zap.Int("len", len(payload)))
			continue
		}

		select {
		case p.in <- pkt:
		case <-p.closeCh:
			return
		}
	}
}

// writeLoop frames queued packets onto the output stream, flushing once the
// queue is momentarily empty.
func (p *Pipe) writeLoop() {
	defer close(p.done)
	bw := bufio.NewWriter(p.w)

	for {
		select {
		case pkt := <-p.out:
			if !p.writeOne(bw, pkt) {
				return
			}
			for len(p.out) > 0 {
				if !p.writeOne(bw, <-p.out) {
					return
				}
			}
			if err := bw.Flush(); err != nil {
				p.log.Warn("flush error", zap.Error(err))
				return
			}
		case <-p.closeCh:
			for len(p.out) > 0 {
				if !p.writeOne(bw, <-p.out) {
					return
				}
			}
			if err := bw.Flush(); err != nil {
				p.log.Warn("flush error", zap.Error(err))
			}
			return
		}
	}
}

func (p *Pipe) writeOne(w io.Writer, pkt packet.Packet) bool {
	p.log.Debug("TX",
		zap.String("op", packet.OpcodeName(pkt.Op)),
		zap.Uint32("client", uint32(pkt.Client)),
		zap.Int("len", len(pkt.Body)),
	)
	data, err := packet.Marshal(pkt)
	if err != nil {
		p.log.Error("encode packet", zap.Error(err))
		return true
	}
	if err := WriteFrame(w, data); err != nil {
		p.log.Warn("write error", zap.Error(err))
		return false
	}
	return true
}
