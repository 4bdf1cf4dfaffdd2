package axistransport

import (
	"go.bug.st/serial"
)

// SerialTransport is the real axis transport, backed by a serial link to
// each motor controller node. Address.Host names the device path (e.g.
// "/dev/ttyMC0"); Address.Port and Address.Axis are passed through as the
// node address framed onto the wire by the caller's command strings.
type SerialTransport struct {
	opts PortOptions
}

// NewSerialTransport creates a Transport that opens real serial links using
// the given port options.
func NewSerialTransport(opts PortOptions) *SerialTransport {
	return &SerialTransport{opts: opts}
}

// Open opens one serial connection to addr.Host and multiplexes it into the
// control and status handles. A single physical link backs both handles;
// they are logically independent because node serializes writes and
// register reads on separate locks (see node.go).
func (t *SerialTransport) Open(addr Address) (control, status Channel, err error) {
	mode, err := t.opts.SerialMode()
	if err != nil {
		return nil, nil, &TransportError{Op: "open", Addr: addr, Err: err}
	}

	port, err := serial.Open(addr.Host, mode)
	if err != nil {
		return nil, nil, &TransportError{Op: "open", Addr: addr, Err: err}
	}

	n := newNode(port)
	return &nodeChannel{n}, &nodeChannel{n}, nil
}
