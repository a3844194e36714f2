package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/poyrazK/dnsq/internal/dns/packet"
)

var (
	ErrTimeout       = errors.New("receive timed out")
	ErrShortWrite    = errors.New("the query sent does not match the intended size")
	ErrInvalidServer = errors.New("server must be an IPv4 address")
)

// UDPTransport owns the single socket used for a lookup. The socket is left
// unconnected so that ICMP errors from the server do not abort the receive
// loop; replies are accepted from any source.
type UDPTransport struct {
	conn   *net.UDPConn
	server *net.UDPAddr
}

// DialUDP opens a socket for talking to server:port.
func DialUDP(server string, port int) (*UDPTransport, error) {
	ip := net.ParseIP(server).To4()
	if ip == nil {
		return nil, fmt.Errorf("%q: %w", server, ErrInvalidServer)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("port %d out of range", port)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("there was a problem creating a socket to %s:%d: %w", server, port, err)
	}
	return &UDPTransport{
		conn:   conn,
		server: &net.UDPAddr{IP: ip, Port: port},
	}, nil
}

// Send transmits data as one datagram.
func (t *UDPTransport) Send(ctx context.Context, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	n, err := t.conn.WriteToUDP(data, t.server)
	if err != nil {
		return fmt.Errorf("there was a problem querying the server: %w", err)
	}
	if n != len(data) {
		return ErrShortWrite
	}
	return nil
}

// Receive waits for the next datagram. A zero timeout blocks until one
// arrives or ctx is done.
func (t *UDPTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	// Cancelling ctx unblocks the read by moving the deadline to now.
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, packet.MaxPacketSize)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("receive reply: %w", err)
	}
	return buf[:n], nil
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || isErrnoTimeout(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
