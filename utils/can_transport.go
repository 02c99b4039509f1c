package utils

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANWriter transmits frames on a bus.
type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// SocketCANWriter sends command frames on one SocketCAN interface. Write
// errors carry the interface name and frame id.
type SocketCANWriter struct {
	iface string
	conn  net.Conn
	tx    *socketcan.Transmitter

	mu     sync.Mutex
	sent   uint64
	closed bool
}

// NewSocketCANWriter dials the named SocketCAN interface, e.g. "vcan0".
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return newSocketCANWriter(iface, conn), nil
}

func newSocketCANWriter(iface string, conn net.Conn) *SocketCANWriter {
	return &SocketCANWriter{
		iface: iface,
		conn:  conn,
		tx:    socketcan.NewTransmitter(conn),
	}
}

// Interface returns the bus name the writer was opened on.
func (w *SocketCANWriter) Interface() string {
	return w.iface
}

// Sent returns the number of frames written successfully.
func (w *SocketCANWriter) Sent() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sent
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("%s: write 0x%X: %w", w.iface, frame.ID, net.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.tx.TransmitFrame(ctx, frame); err != nil {
		return fmt.Errorf("%s: write 0x%X: %w", w.iface, frame.ID, err)
	}
	w.sent++
	return nil
}

func (w *SocketCANWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.conn == nil {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}
