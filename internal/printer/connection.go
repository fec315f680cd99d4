package printer

import (
	"context"
	"fmt"
	"image"
	"net"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// DefaultPort is the raw printing port
const DefaultPort = 9100

// Connection is an open printer link
type Connection interface {
	Write(data []byte) (int, error)
	Close() error
}

// Print encodes img for the paper width and sends it
func Print(conn Connection, img image.Image, dots int) error {
	data := Encode(img, dots)
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write to printer: %w", err)
	}
	return nil
}

// NetworkConnection represents a network printer connection
type NetworkConnection struct {
	conn net.Conn
	mu   sync.Mutex
}

// ConnectNetwork connects to a network printer
func ConnectNetwork(ctx context.Context, host string, port int) (*NetworkConnection, error) {
	if port == 0 {
		port = DefaultPort
	}
	address := net.JoinHostPort(host, fmt.Sprint(port))

	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}

	return &NetworkConnection{conn: conn}, nil
}

// Write sends data to the network printer
func (c *NetworkConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(data)
}

// Close closes the network connection
func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SerialConnection represents a serial printer connection
type SerialConnection struct {
	port *serial.Port
	mu   sync.Mutex
}

// ConnectSerial connects to a serial printer
func ConnectSerial(device string, baud int) (*SerialConnection, error) {
	if baud == 0 {
		baud = 9600 // Default baud rate for most thermal printers
	}

	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	return &SerialConnection{port: port}, nil
}

// Write sends data to the serial printer
func (c *SerialConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Write(data)
}

// Close closes the serial connection
func (c *SerialConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port != nil {
		return c.port.Close()
	}
	return nil
}

// Target names where to print
type Target struct {
	Host   string
	Port   int
	Device string
	Baud   int
}

// Open connects to the network printer when Host is set, else the serial device
func Open(ctx context.Context, t Target) (Connection, error) {
	switch {
	case t.Host != "":
		return ConnectNetwork(ctx, t.Host, t.Port)
	case t.Device != "":
		return ConnectSerial(t.Device, t.Baud)
	default:
		return nil, fmt.Errorf("no printer configured")
	}
}
