package network

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/libp2p/go-reuseport"

	"elevsim/src/config"
)

// Channel is a Link over UDP.
type Channel struct {
	conn    net.PacketConn
	dest    *net.UDPAddr
	timeout time.Duration
	buf     []byte
	log     *slog.Logger
}

// Dial listens on receivePort and sends every datagram to host:sendPort.
// A zero timeout makes Receive block indefinitely.
func Dial(host string, receivePort, sendPort int, timeout time.Duration) (*Channel, error) {
	conn, err := reuseport.ListenPacket("udp4", fmt.Sprintf(":%d", receivePort))
	if err != nil {
		return nil, fmt.Errorf("listen on %d: %w", receivePort, err)
	}

	dest, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(sendPort)))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolve %s:%d: %w", host, sendPort, err)
	}

	return &Channel{
		conn:    conn,
		dest:    dest,
		timeout: timeout,
		buf:     make([]byte, config.MaxDatagramSize),
		log:     slog.With("rx", receivePort, "tx", sendPort),
	}, nil
}

func (c *Channel) Send(msg Message) error {
	encoded, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := c.conn.WriteTo(encoded, c.dest); err != nil {
		return fmt.Errorf("send to %s: %w", c.dest, err)
	}
	c.log.Debug("Sent datagram", "msg", string(encoded))
	return nil
}

func (c *Channel) Receive() (Result, error) {
	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Result{}, fmt.Errorf("set read deadline: %w", err)
	}

	n, _, err := c.conn.ReadFrom(c.buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.log.Debug("Receive timed out", "timeout", c.timeout)
			return TimedOut(), nil
		}
		return Result{}, fmt.Errorf("receive: %w", err)
	}

	msg, err := Decode(c.buf[:n])
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("Received datagram", "msg", string(c.buf[:n]))
	return Received(msg), nil
}

func (c *Channel) Close() error {
	return c.conn.Close()
}
