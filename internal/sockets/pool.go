package sockets

import "sync"

// SocketPool is a concurrent set of sockets keyed by identity.
type SocketPool struct {
	mutex   sync.Mutex
	sockets map[SocketID]Socket
}

func NewSocketPool() *SocketPool {
	return &SocketPool{
		sockets: make(map[SocketID]Socket),
	}
}

func (p *SocketPool) AddSocket(socket Socket) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.sockets[socket.ID()] = socket
}

func (p *SocketPool) GetSocket(id SocketID) Socket {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if conn, contains := p.sockets[id]; contains {
		return conn
	}
	return nil
}

// RemoveSocket drops the socket from the pool without closing it and reports
// whether it was present.
func (p *SocketPool) RemoveSocket(id SocketID) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, contains := p.sockets[id]; !contains {
		return false
	}
	delete(p.sockets, id)
	return true
}

// Snapshot returns the current members. The slice is safe to iterate while
// other goroutines add or remove sockets.
func (p *SocketPool) Snapshot() []Socket {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	result := make([]Socket, 0, len(p.sockets))
	for _, s := range p.sockets {
		result = append(result, s)
	}
	return result
}

func (p *SocketPool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.sockets)
}

func (p *SocketPool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for id, conn := range p.sockets {
		_ = conn.Close()
		delete(p.sockets, id)
	}
}
