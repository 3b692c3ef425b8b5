package telemetry

import (
	"fmt"
	"net"

	"github.com/pion/logging"
)

// Sender transmits one reading to a peer. Implementations do not retry.
type Sender interface {
	SendReading(value float64, peer net.Addr) error
}

// UDPSender writes readings as single datagrams.
type UDPSender struct {
	conn net.PacketConn
	log  logging.LeveledLogger
}

// NewUDPSender binds a UDP socket on bindAddr for sending.
func NewUDPSender(bindAddr string, cfg Config) (*UDPSender, error) {
	pc, err := net.ListenPacket("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: bind sender %s: %w", bindAddr, err)
	}
	return NewUDPSenderConn(pc, cfg), nil
}

// NewUDPSenderConn sends through an existing packet connection.
// The sender takes ownership of pc.
func NewUDPSenderConn(pc net.PacketConn, cfg Config) *UDPSender {
	return &UDPSender{
		conn: pc,
		log:  cfg.newLogger("telemetry-sender"),
	}
}

// SendReading encodes value and writes it to peer in one datagram.
// Returns an error wrapping ErrSendFailed on any I/O failure.
func (s *UDPSender) SendReading(value float64, peer net.Addr) error {
	buf := EncodeReading(value)
	n, err := s.conn.WriteTo(buf, peer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrSendFailed, n, len(buf))
	}
	if s.log != nil {
		s.log.Tracef("sent %v to %v", value, peer)
	}
	return nil
}

// LocalAddr returns the bound address.
func (s *UDPSender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close closes the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}

// ResolvePeer resolves a "host:port" UDP destination.
func ResolvePeer(addr string) (net.Addr, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resolve peer %s: %w", addr, err)
	}
	return ua, nil
}
