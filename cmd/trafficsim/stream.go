package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/LdDl/trafficsim"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type statePayload struct {
	Time       float64               `json:"time"`
	Statistics trafficsim.Statistics `json:"statistics"`
	Network    json.RawMessage       `json:"network"`
}

// stream broadcasts the latest snapshot of the simulation to websocket clients
type stream struct {
	snapshot      []byte
	snapshotMutex sync.Mutex
	clients       map[*websocket.Conn]bool
	clientsMutex  sync.Mutex
}

func newStream() *stream {
	return &stream{
		clients: make(map[*websocket.Conn]bool),
	}
}

// publish is called by the simulation loop after every step
func (s *stream) publish(sim *trafficsim.Simulation) {
	network, err := sim.ExportGeoJSON()
	if err != nil {
		logrus.WithError(err).Warn("Can't prepare snapshot")
		return
	}
	payload, err := json.Marshal(statePayload{
		Time:       sim.Time(),
		Statistics: sim.Statistics(),
		Network:    network,
	})
	if err != nil {
		logrus.WithError(err).Warn("Can't marshal snapshot")
		return
	}
	s.snapshotMutex.Lock()
	s.snapshot = payload
	s.snapshotMutex.Unlock()
}

func (s *stream) start(addr string, period time.Duration) {
	http.HandleFunc("/ws", s.handleWs)
	go s.broadcast(period)
	logrus.WithField("addr", addr).Info("Snapshot stream is starting")
	err := http.ListenAndServe(addr, nil)
	if err != nil {
		logrus.WithError(err).Error("Snapshot stream has stopped")
	}
}

func (s *stream) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("Can't upgrade connection")
		return
	}
	s.clientsMutex.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMutex.Unlock()
	logrus.WithField("clients", total).Info("Client connected")

	go s.handleClientMessages(conn)
}

// handleClientMessages drains incoming messages until the client goes away
func (s *stream) handleClientMessages(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.clientsMutex.Unlock()
	}()
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("Websocket error")
			}
			return
		}
	}
}

func (s *stream) broadcast(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		s.snapshotMutex.Lock()
		payload := s.snapshot
		s.snapshotMutex.Unlock()
		if payload == nil {
			continue
		}
		s.clientsMutex.Lock()
		for conn := range s.clients {
			err := conn.WriteMessage(websocket.TextMessage, payload)
			if err != nil {
				logrus.WithError(err).Warn("Websocket write error")
				conn.Close()
				delete(s.clients, conn)
			}
		}
		s.clientsMutex.Unlock()
	}
}
