// Command duskbot is a headless load and smoke-test client. It connects
// over websocket, joins with a throwaway name, walks around with predicted
// inputs and reconciles against every patch, reporting prediction drift.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/client"
	"github.com/duskspire/server/internal/protocol"
	"github.com/duskspire/server/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:8337", "server host:port")
	name := flag.String("name", "", "character name (random if empty)")
	room := flag.String("room", "hub", "room to join: hub or dungeon")
	dungeon := flag.String("dungeon", "", "dungeon id when -room=dungeon")
	hz := flag.Int("hz", 20, "input sample rate")
	duration := flag.Duration("duration", 0, "exit after this long (0 = run until interrupted)")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	if *name == "" {
		*name = fmt.Sprintf("bot-%04d", rand.Intn(10000))
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.JoinMsg{
		Type:      protocol.TypeJoin,
		Room:      *room,
		Name:      *name,
		Class:     "wanderer",
		DungeonID: *dungeon,
	}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	welcome, err := awaitWelcome(conn)
	if err != nil {
		return err
	}
	log.Info("joined",
		zap.String("name", *name),
		zap.Uint64("player_id", welcome.PlayerID),
		zap.String("room", welcome.Room),
		zap.Int("tick_rate_hz", welcome.TickRate),
		zap.Int64("gold", welcome.Gold))

	b := &bot{
		conn:     conn,
		log:      log,
		playerID: welcome.PlayerID,
		pipe:     client.NewPipeline(mgl64.Vec3{}, 0),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		patchCh:  make(chan *protocol.PatchMsg, 64),
	}

	readErr := make(chan error, 1)
	go func() { readErr <- b.readLoop() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	interval := time.Second / time.Duration(*hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := b.sendInput(dt); err != nil {
				return fmt.Errorf("send input: %w", err)
			}
		case err := <-readErr:
			return fmt.Errorf("read: %w", err)
		case <-deadline:
			log.Info("duration elapsed", zap.Float64("max_drift", b.maxDrift))
			return nil
		case <-sigCh:
			log.Info("interrupted", zap.Float64("max_drift", b.maxDrift))
			return nil
		}
	}
}

type bot struct {
	conn     *websocket.Conn
	log      *zap.Logger
	playerID uint64
	pipe     *client.Pipeline
	rng      *rand.Rand

	// Wander heading, re-rolled every few seconds.
	heading   float64
	headingIn time.Time

	patchCh  chan *protocol.PatchMsg
	maxDrift float64
}

// sendInput samples one wander input, predicts it locally and ships it.
// Reconciliation against any patches the read loop collected happens
// first so replay starts from the freshest authoritative state.
func (b *bot) sendInput(dt float64) error {
	b.drainPatches()

	if time.Since(b.headingIn) > 3*time.Second {
		b.heading = (b.rng.Float64() - 0.5) * 2 * math.Pi
		b.headingIn = time.Now()
	}

	in := sim.Input{
		Forward:  true,
		Rotation: b.heading,
		Dt:       math.Min(dt, sim.MaxInputDt),
	}
	stamped := b.pipe.Predict(in)
	return b.conn.WriteJSON(protocol.InputMsg{Type: protocol.TypeInput, Input: stamped})
}

func (b *bot) drainPatches() {
	for {
		select {
		case patch := <-b.patchCh:
			b.applyPatch(patch)
		default:
			return
		}
	}
}

// applyPatch reconciles the local prediction against the server's view of
// this bot and tracks the worst drift seen before correction.
func (b *bot) applyPatch(patch *protocol.PatchMsg) {
	for _, ev := range patch.Events {
		if ev.Kind != protocol.KindPlayer || ev.ID != b.playerID || ev.Player == nil {
			continue
		}
		ps := ev.Player
		auth := mgl64.Vec3{ps.X, ps.Y, ps.Z}
		drift := sim.PlanarDistance(b.pipe.Pos(), auth)
		if drift > b.maxDrift {
			b.maxDrift = drift
		}
		b.pipe.Reconcile(auth, ps.Rotation, ps.LastProcessedInput)
		if drift > 1.0 {
			b.log.Warn("prediction drift",
				zap.Float64("drift", drift),
				zap.Uint32("last_input", ps.LastProcessedInput),
				zap.Int("pending", b.pipe.Pending()))
		}
	}
}

func (b *bot) readLoop() error {
	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			return err
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			b.log.Warn("bad message", zap.Error(err))
			continue
		}
		switch base.Type {
		case protocol.TypePatch:
			var patch protocol.PatchMsg
			if err := json.Unmarshal(raw, &patch); err != nil {
				b.log.Warn("bad patch", zap.Error(err))
				continue
			}
			select {
			case b.patchCh <- &patch:
			default:
				b.log.Warn("patch queue full, dropping", zap.Uint64("tick", patch.Tick))
			}
		case protocol.TypeLevelUp, protocol.TypeGoldGained, protocol.TypePlayerDied,
			protocol.TypeFloorStarted, protocol.TypeFloorCleared, protocol.TypeDungeonComplete:
			b.log.Info("event", zap.String("type", base.Type))
		}
	}
}

func awaitWelcome(conn *websocket.Conn) (*protocol.WelcomeMsg, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(raw, &welcome); err != nil {
		return nil, fmt.Errorf("decode welcome: %w", err)
	}
	if welcome.Type != protocol.TypeWelcome {
		return nil, fmt.Errorf("expected welcome, got %q: %s", welcome.Type, raw)
	}
	return &welcome, nil
}
