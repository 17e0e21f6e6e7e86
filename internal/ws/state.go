// Package ws exposes the simulated badge over websockets: LED frames
// out, button events in, diagnostics on the side. It is the
// simulator-only surface; nothing here runs on a real board.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-charliebadge/internal/badge"
	"github.com/coreman2200/funtimes-charliebadge/internal/charlie"
	"github.com/coreman2200/funtimes-charliebadge/internal/diag"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal"
	"github.com/coreman2200/funtimes-charliebadge/internal/hal/sim"
)

type State struct {
	mu    sync.RWMutex
	Badge *badge.Badge
	Board *sim.Board
	FPS   int

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewState(b *badge.Badge, board *sim.Board, fps int) *State {
	s := &State{
		Badge:       b,
		Board:       board,
		FPS:         fps,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
	b.OnDiag = s.PushDiag
	return s
}

type frame struct {
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	LEDs    [8]bool  `json:"leds"`
	Buttons [2]bool  `json:"buttons"`
	AwakeMS uint64   `json:"awake_ms"`
	Game    gameInfo `json:"game"`
}

type gameInfo struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// RunBroadcastLoop pushes frames to every connected client at FPS.
func (s *State) RunBroadcastLoop() {
	fps := s.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		s.frameID++
		f := frame{
			T:       time.Now().UnixNano(),
			FrameID: s.frameID,
			AwakeMS: s.Badge.Scanner.AwakeMS(),
			Game:    gameInfo{Active: s.Badge.Game.Active(), Count: s.Badge.Game.Count()},
		}
		mask := s.Badge.Lights.Mask()
		for i := 0; i < charlie.Slots; i++ {
			f.LEDs[i] = mask&(1<<i) != 0
		}
		f.Buttons[hal.Left] = s.Board.Raw(hal.Left)
		f.Buttons[hal.Right] = s.Board.Raw(hal.Right)
		s.mu.Unlock()
		s.broadcast(f)
	}
}

func (s *State) broadcast(f frame) {
	b, _ := json.Marshal(f)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// PushDiag forwards a diagnostic to every diag client. It is called
// from both the badge loop and the control handlers, so the write lock
// also serializes the per-connection writes.
func (s *State) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControlWS accepts button messages: {"button":"left","action":"press"}.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Button string `json:"button"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.applyControl(msg.Button, msg.Action)
	}
}

func (s *State) applyControl(btn, action string) {
	var side hal.Side
	switch btn {
	case "left":
		side = hal.Left
	case "right":
		side = hal.Right
	default:
		s.PushDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: "CTRL.UNKNOWN", Summary: "unknown button",
			Evidence: map[string]any{"button": btn},
		})
		return
	}
	switch action {
	case "press":
		s.Board.Press(side)
	case "release":
		s.Board.Release(side)
	case "tap":
		s.Board.Press(side)
		go func() {
			time.Sleep(40 * time.Millisecond)
			s.Board.Release(side)
		}()
	default:
		s.PushDiag(diag.Diagnostic{
			Severity: diag.Warn, Code: "CTRL.UNKNOWN", Summary: "unknown action",
			Evidence: map[string]any{"action": action},
		})
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"awake_ms": s.Badge.Scanner.AwakeMS(),
		"fps":      s.FPS,
	}
	_ = json.NewEncoder(w).Encode(resp)
}
