package axistransport

import (
	"bytes"
	"errors"
	"sync"
)

// TestablePort implements io.ReadWriteCloser with configurable behaviour for
// testing SerialTransport-adjacent code without a real serial link. Modeled
// on serialmux.TestableSerialPort's fine-grained fault injection.
type TestablePort struct {
	mu sync.Mutex

	ReadBuffer  *bytes.Buffer
	WriteBuffer *bytes.Buffer

	WriteError error
	Closed     bool
}

// NewTestablePort returns an empty TestablePort.
func NewTestablePort() *TestablePort {
	return &TestablePort{ReadBuffer: bytes.NewBuffer(nil), WriteBuffer: bytes.NewBuffer(nil)}
}

func (p *TestablePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Closed {
		return 0, errors.New("axistransport: testable port closed")
	}
	return p.ReadBuffer.Read(b)
}

func (p *TestablePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Closed {
		return 0, errors.New("axistransport: testable port closed")
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}
	return p.WriteBuffer.Write(b)
}

func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// QueueLine appends a response line (with trailing newline) to ReadBuffer
// for a subsequent blocking ReadInt to consume.
func (p *TestablePort) QueueLine(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ReadBuffer.WriteString(line)
	p.ReadBuffer.WriteByte('\n')
}

// Written returns everything written to the port so far.
func (p *TestablePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.WriteBuffer.String()
}
