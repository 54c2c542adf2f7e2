// Package spectator pushes a JSON summary of each processed step to
// connected websocket dashboard clients. It is a one-way output sink:
// nothing a spectator sends ever reaches the game core.
package spectator

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

// Summary is the per-step message pushed to clients.
type Summary struct {
	Height        int32     `json:"height"`
	Players       int       `json:"players"`
	KilledPlayers []string  `json:"killed_players,omitempty"`
	BountyCount   int       `json:"bounty_count"`
	TaxAmount     int64     `json:"tax_amount"`
	CrownHolder   string    `json:"crown_holder,omitempty"`
	CrownPos      geo.Coord `json:"crown_pos"`
	GameFund      int64     `json:"game_fund"`
}

// NewSummary condenses a step's outcome for the dashboard.
func NewSummary(state *entities.GameState, result *entities.StepResult) Summary {
	s := Summary{
		Height:        state.Height,
		Players:       len(state.Players),
		KilledPlayers: result.KilledPlayers,
		BountyCount:   len(result.Bounties),
		TaxAmount:     result.TaxAmount,
		CrownPos:      state.CrownPos,
		GameFund:      state.GameFund,
	}
	if h := state.CrownHolder; h != nil {
		s.CrownHolder = h.PlayerName
	}
	return s
}

// Server owns the client set and the broadcast fan-out.
type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewServer returns a server ready to accept spectator connections.
func NewServer(logger *log.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[*client]struct{}{},
	}
}

// Handler upgrades a request to a websocket and streams summaries until
// the client goes away. A client that cannot keep up is dropped rather
// than allowed to stall the broadcast.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{out: make(chan []byte, 64), done: make(chan struct{})}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		defer func() {
			c.stop()
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}()

		// Drain (and discard) client frames so pings keep working.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					c.stop()
					return
				}
			}
		}()

		for {
			select {
			case <-c.done:
				return
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Broadcast pushes one summary to every connected client.
func (s *Server) Broadcast(sum Summary) {
	b, err := json.Marshal(sum)
	if err != nil {
		if s.log != nil {
			s.log.Printf("spectator: marshal summary: %v", err)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.out <- b:
		default:
			c.stop()
			delete(s.clients, c)
		}
	}
}
