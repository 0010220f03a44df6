package monitor

import (
	"encoding/json"
	logger "log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// mapOp is one rendering operation broadcast to browser map clients. The
// browser side applies them to its Leaflet layers in arrival order.
type mapOp struct {
	Op      string  `json:"op"`
	ID      string  `json:"id"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Color   string  `json:"color,omitempty"`
	Tooltip string  `json:"tooltip,omitempty"`
	Popup   string  `json:"popup,omitempty"`
	Keep    int     `json:"keep,omitempty"`
}

const (
	opAddMarker   = "addMarker"
	opMoveMarker  = "moveMarker"
	opSetPopup    = "setPopup"
	opAddTrail    = "addTrail"
	opExtendTrail = "extendTrail"
	opTrimTrail   = "trimTrail"
	opRemove      = "remove"
)

// wsEntity is the display state kept per entity so newly connected clients
// can be replayed a full snapshot before receiving live operations.
type wsEntity struct {
	lat     float64
	lon     float64
	color   string
	tooltip string
	popup   string
	trail   [][2]float64
}

// WSMapSurface implements MapSurface by broadcasting rendering operations to
// connected websocket clients. It also serves the websocket endpoint.
type WSMapSurface struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	entities map[string]*wsEntity
}

// MakeWSMapSurface creates a WSMapSurface.
func MakeWSMapSurface(log *logger.Logger) *WSMapSurface {
	return &WSMapSurface{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]struct{}),
		entities: make(map[string]*wsEntity),
	}
}

// AddMarker implements MapSurface.
func (s *WSMapSurface) AddMarker(id string, lat, lon float64, color, tooltip, popup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.getOrMakeEntity(id)
	entity.lat, entity.lon = lat, lon
	entity.color, entity.tooltip, entity.popup = color, tooltip, popup
	s.broadcast(mapOp{Op: opAddMarker, ID: id, Lat: lat, Lon: lon,
		Color: color, Tooltip: tooltip, Popup: popup})
}

// MoveMarker implements MapSurface.
func (s *WSMapSurface) MoveMarker(id string, lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.getOrMakeEntity(id)
	entity.lat, entity.lon = lat, lon
	s.broadcast(mapOp{Op: opMoveMarker, ID: id, Lat: lat, Lon: lon})
}

// SetMarkerPopup implements MapSurface.
func (s *WSMapSurface) SetMarkerPopup(id string, popup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrMakeEntity(id).popup = popup
	s.broadcast(mapOp{Op: opSetPopup, ID: id, Popup: popup})
}

// AddTrail implements MapSurface.
func (s *WSMapSurface) AddTrail(id string, lat, lon float64, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.getOrMakeEntity(id)
	entity.trail = [][2]float64{{lat, lon}}
	entity.color = color
	s.broadcast(mapOp{Op: opAddTrail, ID: id, Lat: lat, Lon: lon, Color: color})
}

// ExtendTrail implements MapSurface.
func (s *WSMapSurface) ExtendTrail(id string, lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.getOrMakeEntity(id)
	entity.trail = append(entity.trail, [2]float64{lat, lon})
	s.broadcast(mapOp{Op: opExtendTrail, ID: id, Lat: lat, Lon: lon})
}

// TrimTrail implements MapSurface.
func (s *WSMapSurface) TrimTrail(id string, keep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.getOrMakeEntity(id)
	if len(entity.trail) > keep {
		entity.trail = entity.trail[len(entity.trail)-keep:]
	}
	s.broadcast(mapOp{Op: opTrimTrail, ID: id, Keep: keep})
}

// RemoveEntity implements MapSurface.
func (s *WSMapSurface) RemoveEntity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, id)
	s.broadcast(mapOp{Op: opRemove, ID: id})
}

func (s *WSMapSurface) getOrMakeEntity(id string) *wsEntity {
	if entity, present := s.entities[id]; present {
		return entity
	}
	entity := &wsEntity{}
	s.entities[id] = entity
	return entity
}

// broadcast sends one operation to every connected client, dropping clients
// whose writes fail. Callers hold the mutex.
func (s *WSMapSurface) broadcast(op mapOp) {
	if len(s.clients) == 0 {
		return
	}
	data, err := json.Marshal([]mapOp{op})
	if err != nil {
		s.log.Printf("failed to marshal map operation: %v", err)
		return
	}
	for conn := range s.clients {
		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(s.clients, conn)
		}
	}
}

// snapshotOps rebuilds the full operation sequence that brings a fresh client
// up to the current display state. Callers hold the mutex.
func (s *WSMapSurface) snapshotOps() []mapOp {
	var ops []mapOp
	for id, entity := range s.entities {
		ops = append(ops, mapOp{Op: opAddMarker, ID: id, Lat: entity.lat, Lon: entity.lon,
			Color: entity.color, Tooltip: entity.tooltip, Popup: entity.popup})
		for i, point := range entity.trail {
			if i == 0 {
				ops = append(ops, mapOp{Op: opAddTrail, ID: id,
					Lat: point[0], Lon: point[1], Color: entity.color})
			} else {
				ops = append(ops, mapOp{Op: opExtendTrail, ID: id,
					Lat: point[0], Lon: point[1]})
			}
		}
	}
	return ops
}

// ServeHTTP upgrades the connection, replays the current snapshot and keeps
// the client subscribed to live operations until it disconnects.
func (s *WSMapSurface) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	snapshot := s.snapshotOps()
	data, err := json.Marshal(snapshot)
	if err == nil {
		if snapshot == nil {
			data = []byte("[]")
		}
		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	go s.readPump(conn)
}

// readPump drains client messages until the connection drops, then removes
// the client.
func (s *WSMapSurface) readPump(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
