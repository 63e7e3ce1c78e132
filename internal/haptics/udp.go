// SPDX-License-Identifier: MIT
package haptics

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"pulse/internal/log"
)

// Datagram kinds understood by actuator bridges.
const (
	packetKindEvent byte = 1 // Parametric event, full payload
	packetKindPulse byte = 2 // Coarse pulse, parameters zeroed
)

/*
UDP Packet Structure (BigEndian):

	| Field           | Type    | Size |
	|-----------------|---------|------|
	| Kind            | byte    | 1    |
	| Sequence Number | uint32  | 4    |
	| Timestamp       | int64   | 8    | nanoseconds since epoch
	| Intensity       | float32 | 4    |
	| Sharpness       | float32 | 4    |
	| Duration        | float32 | 4    | seconds
	| Relative Start  | float32 | 4    | seconds
*/

// UDPEmitter sends each haptic event as one fixed-layout datagram to a
// bridge on the LAN. Fire-and-forget: a lost datagram is a lost pulse,
// which the debounce interval already tolerates. The packet buffer is
// reused across emissions; the mutex covers the rare case of Close
// racing a final emission.
type UDPEmitter struct {
	conn   *net.UDPConn
	mu     sync.Mutex
	seq    uint32
	packet *bytes.Buffer // Reusable buffer for datagram construction
	closed bool
}

// NewUDPEmitter resolves target ("host:port") and opens the socket.
func NewUDPEmitter(target string) (*UDPEmitter, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("haptics: resolving UDP target %q: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("haptics: dialing UDP target %q: %w", target, err)
	}

	log.Infof("haptics: UDP emitter sending to %s", target)

	return &UDPEmitter{
		conn:   conn,
		packet: new(bytes.Buffer),
	}, nil
}

// SupportsEvents reports true; the wire format carries full parameters.
func (e *UDPEmitter) SupportsEvents() bool { return true }

// EmitEvent packs and sends one parametric event datagram.
func (e *UDPEmitter) EmitEvent(ev Event) error {
	return e.send(packetKindEvent, ev)
}

// EmitPulse sends a coarse pulse datagram with zeroed parameters.
func (e *UDPEmitter) EmitPulse() error {
	return e.send(packetKindPulse, Event{})
}

func (e *UDPEmitter) send(kind byte, ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("haptics: UDP emitter is closed")
	}

	e.seq++
	e.packet.Reset()
	if err := packEvent(e.packet, kind, e.seq, time.Now().UnixNano(), ev); err != nil {
		return fmt.Errorf("haptics: packing datagram: %w", err)
	}

	if _, err := e.conn.Write(e.packet.Bytes()); err != nil {
		return fmt.Errorf("haptics: sending datagram %d: %w", e.seq, err)
	}
	log.Debugf("haptics: sent datagram %d (%d bytes)", e.seq, e.packet.Len())
	return nil
}

// packEvent writes the fixed-layout datagram into buf.
func packEvent(buf *bytes.Buffer, kind byte, seq uint32, timestamp int64, ev Event) error {
	if err := buf.WriteByte(kind); err != nil {
		return err
	}
	fields := []any{
		seq,
		timestamp,
		float32(ev.Intensity),
		float32(ev.Sharpness),
		float32(ev.Duration),
		float32(ev.RelativeStart),
	}
	for _, field := range fields {
		if err := binary.Write(buf, binary.BigEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the socket. Emissions after Close return an error.
func (e *UDPEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.conn.Close()
}

var _ Emitter = (*UDPEmitter)(nil)
