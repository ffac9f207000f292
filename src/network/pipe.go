package network

import (
	"errors"
	"sync"
	"time"
)

const pipeBuffer = 64

var ErrClosed = errors.New("link closed")

// PipeEnd is an in-process Link. Datagrams still go through Encode/Decode and
// are dropped when the peer's buffer is full, as UDP would.
type PipeEnd struct {
	in      chan []byte
	out     chan []byte
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewPipe returns two connected ends sharing the same receive timeout.
func NewPipe(timeout time.Duration) (*PipeEnd, *PipeEnd) {
	return NewPipeWithTimeouts(timeout, timeout)
}

// NewPipeWithTimeouts returns two connected ends; a receives with timeoutA
// and b with timeoutB.
func NewPipeWithTimeouts(timeoutA, timeoutB time.Duration) (*PipeEnd, *PipeEnd) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	a := &PipeEnd{in: ba, out: ab, timeout: timeoutA}
	b := &PipeEnd{in: ab, out: ba, timeout: timeoutB}
	return a, b
}

func (p *PipeEnd) Send(msg Message) error {
	encoded, err := Encode(msg)
	if err != nil {
		return err
	}
	return p.SendRaw(encoded)
}

// SendRaw delivers bytes as-is, which lets tests inject malformed datagrams.
func (p *PipeEnd) SendRaw(data []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case p.out <- data:
	default:
	}
	return nil
}

func (p *PipeEnd) Receive() (Result, error) {
	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case data := <-p.in:
		msg, err := Decode(data)
		if err != nil {
			return Result{}, err
		}
		return Received(msg), nil
	case <-timeout:
		return TimedOut(), nil
	}
}

func (p *PipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
