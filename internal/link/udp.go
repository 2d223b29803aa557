package link

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
)

// udpHeaderSize is source address + destination address
const udpHeaderSize = 12

// UDPMedium carries frames in UDP datagrams. Each datagram is
// src(6) | dst(6) | payload. Stations are reached through a static route
// table from hardware address to UDP endpoint.
type UDPMedium struct {
	listen string
	routes map[Addr]*net.UDPAddr

	mu     sync.Mutex
	conn   *net.UDPConn
	self   Addr
	frames chan Frame
	closed bool
	wg     sync.WaitGroup
}

// NewUDPMedium creates a UDP medium bound to listen (e.g. ":4210")
func NewUDPMedium(listen string, routes map[Addr]*net.UDPAddr) *UDPMedium {
	if routes == nil {
		routes = make(map[Addr]*net.UDPAddr)
	}
	return &UDPMedium{
		listen: listen,
		routes: routes,
		frames: make(chan Frame, DefaultInboxSize),
	}
}

// ParseRoutes parses "aa:bb:cc:dd:ee:ff=host:port,..." into a route table
func ParseRoutes(table string) (map[Addr]*net.UDPAddr, error) {
	routes := make(map[Addr]*net.UDPAddr)
	for _, entry := range strings.Split(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		mac, endpoint, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("route %q: expected mac=host:port", entry)
		}
		addr, err := ParseAddr(strings.TrimSpace(mac))
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", entry, err)
		}
		udpAddr, err := net.ResolveUDPAddr("udp", strings.TrimSpace(endpoint))
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", entry, err)
		}
		routes[addr] = udpAddr
	}
	return routes, nil
}

func (m *UDPMedium) Open(self Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.conn != nil {
		return errors.New("udp medium already open")
	}

	laddr, err := net.ResolveUDPAddr("udp", m.listen)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", m.listen, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", m.listen, err)
	}

	m.conn = conn
	m.self = self
	m.wg.Add(1)
	go m.readLoop(conn, self)

	log.Printf("UDP: Station %s listening on %s", self, conn.LocalAddr())
	return nil
}

// LocalAddr returns the bound UDP address, or nil before Open
func (m *UDPMedium) LocalAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.LocalAddr()
}

func (m *UDPMedium) AddPeer(peer Addr) error {
	if _, ok := m.routes[peer]; !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, peer)
	}
	return nil
}

func (m *UDPMedium) Transmit(dst Addr, payload []byte) error {
	m.mu.Lock()
	conn, self := m.conn, m.self
	m.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}

	raddr, ok := m.routes[dst]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, dst)
	}

	buf := make([]byte, 0, udpHeaderSize+len(payload))
	buf = append(buf, self[:]...)
	buf = append(buf, dst[:]...)
	buf = append(buf, payload...)

	if _, err := conn.WriteToUDP(buf, raddr); err != nil {
		return fmt.Errorf("udp write to %s: %w", raddr, err)
	}
	return nil
}

func (m *UDPMedium) readLoop(conn *net.UDPConn, self Addr) {
	defer m.wg.Done()
	defer close(m.frames)

	buf := make([]byte, udpHeaderSize+MaxPayload+1)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("UDP: Read error: %v", err)
			continue
		}
		if n < udpHeaderSize || n > udpHeaderSize+MaxPayload {
			continue
		}

		var src, dst Addr
		copy(src[:], buf[0:6])
		copy(dst[:], buf[6:12])
		if dst != self && dst != Broadcast {
			continue
		}

		f := Frame{Src: src, Payload: append([]byte(nil), buf[udpHeaderSize:n]...)}
		select {
		case m.frames <- f:
		default:
			// receiver is behind; drop
		}
	}
}

func (m *UDPMedium) Frames() <-chan Frame {
	return m.frames
}

func (m *UDPMedium) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		close(m.frames)
		return nil
	}
	err := conn.Close()
	m.wg.Wait()
	return err
}
