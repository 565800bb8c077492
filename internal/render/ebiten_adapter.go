package render

import (
	"bytes"
	"image/color"
	"sort"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"enginecore/internal/ecs"
)

// EbitenAdapter is the reference host backend: an orthographic projection
// of the 3D scene (X,Y kept, Z ignored by both drawing and raycasts)
// onto an ebiten.Image, ebiten's keyboard/mouse polling behind
// InputSource, and ebiten/v2/audio behind AudioSource. A host with a true
// 3D renderer implements the same four interfaces instead of this one;
// nothing in internal/engine or internal/scripting depends on ebiten
// directly (spec §4.F).
//
// Grounded on the teacher's internal/core/game.go Game loop (Update/
// Draw/Layout/Run) and internal/core/systems/rendering.go's
// viewport/camera/z-order fields, generalized from 2D sprites to the
// Transform/MeshRenderer/Material/Light/Camera component set.
type EbitenAdapter struct {
	mu sync.RWMutex

	entities []ecs.EntityID
	frame    map[ecs.EntityID]drawEntry

	overrides map[ecs.EntityID]*materialOverride

	audioCtx    *audio.Context
	clips       map[string][]byte
	players     map[int64]*audio.Player
	nextSoundID int64
	attachedTo  map[int64]ecs.EntityID

	prevCursorX, prevCursorY float64
}

type drawEntry struct {
	transform map[string]any
	mesh      map[string]any
	material  map[string]any
}

type materialOverride struct {
	r, g, b, a float64
	metalness  float64
	roughness  float64
	opacity    float64
	visible    bool
	set        bool
}

// NewEbitenAdapter creates an adapter with its own ebiten audio context
// (one process may only create one audio.Context; callers embedding
// multiple engine instances in one process must share a context rather
// than call this more than once).
func NewEbitenAdapter(sampleRate int) *EbitenAdapter {
	return &EbitenAdapter{
		frame:     map[ecs.EntityID]drawEntry{},
		overrides: map[ecs.EntityID]*materialOverride{},
		audioCtx:   audio.NewContext(sampleRate),
		clips:      map[string][]byte{},
		players:    map[int64]*audio.Player{},
		attachedTo: map[int64]ecs.EntityID{},
	}
}

// LoadClip registers raw PCM audio bytes (signed 16-bit little-endian
// stereo, matching the audio context's sample rate) under name, the
// asset pipeline having already decoded whatever source format (ogg,
// wav, ...) the host ships. The `audio` script surface refers to clips
// by this name.
func (a *EbitenAdapter) LoadClip(name string, pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clips[name] = pcm
}

// SyncFrame implements Adapter: snapshot every drawable entity's
// component data for the next Draw call. Read-only over columns, per
// the Adapter contract.
func (a *EbitenAdapter) SyncFrame(columns FrameColumns) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entities = append(a.entities[:0], columns.Entities...)
	for k := range a.frame {
		delete(a.frame, k)
	}
	for _, e := range columns.Entities {
		var entry drawEntry
		if columns.Transform != nil {
			entry.transform, _ = columns.Transform(e)
		}
		if columns.MeshRenderer != nil {
			entry.mesh, _ = columns.MeshRenderer(e)
		}
		if columns.Material != nil {
			entry.material, _ = columns.Material(e)
		}
		a.frame[e] = entry
	}
	return nil
}

// Draw renders the last-synced frame onto screen. Entities are drawn in
// the order of the Entities slice SyncFrame received, with no sorting of
// its own, projecting Transform.Position.{X,Y} directly to screen pixels.
func (a *EbitenAdapter) Draw(screen *ebiten.Image) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, e := range a.entities {
		entry, ok := a.frame[e]
		if !ok || entry.transform == nil || entry.mesh == nil {
			continue
		}
		if ov := a.overrides[e]; ov != nil && ov.set && !ov.visible {
			continue
		}
		pos, _ := entry.transform["position"].(ecs.Vector3)
		r, g, b, alpha := materialColor(entry.material)
		if ov := a.overrides[e]; ov != nil && ov.set {
			r, g, b, alpha = ov.r, ov.g, ov.b, ov.a
		}
		clr := color.RGBA{R: uint8(clamp01(r) * 255), G: uint8(clamp01(g) * 255), B: uint8(clamp01(b) * 255), A: uint8(clamp01(alpha) * 255)}
		vector.DrawFilledRect(screen, float32(pos.X), float32(pos.Y), 16, 16, clr, false)
	}
	ebitenutil.DebugPrint(screen, "")
}

func materialColor(material map[string]any) (r, g, b, a float64) {
	if material == nil {
		return 1, 1, 1, 1
	}
	if c, ok := material["color"].(ecs.Color); ok {
		return c.R, c.G, c.B, c.A
	}
	return 1, 1, 1, 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// --- View ---

func (a *EbitenAdapter) override(e ecs.EntityID) *materialOverride {
	ov, ok := a.overrides[e]
	if !ok {
		ov = &materialOverride{visible: true, opacity: 1}
		a.overrides[e] = ov
	}
	return ov
}

func (a *EbitenAdapter) SetColor(e ecs.EntityID, r, g, b, al float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ov := a.override(e)
	ov.r, ov.g, ov.b, ov.a, ov.set = r, g, b, al, true
	return nil
}

func (a *EbitenAdapter) SetMetalness(e ecs.EntityID, value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.override(e).metalness = value
	return nil
}

func (a *EbitenAdapter) SetRoughness(e ecs.EntityID, value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.override(e).roughness = value
	return nil
}

func (a *EbitenAdapter) SetOpacity(e ecs.EntityID, value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.override(e).opacity = value
	return nil
}

func (a *EbitenAdapter) SetVisible(e ecs.EntityID, visible bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ov := a.override(e)
	ov.visible, ov.set = visible, true
	return nil
}

// Raycast performs a 2D point-in-bounds test along the adapter's
// orthographic projection: the nearest entity whose 16x16 draw bounds
// contain origin's X/Y. dir is unused by this 2D reference adapter; a
// true 3D adapter would intersect dir against scene geometry.
func (a *EbitenAdapter) Raycast(origin, dir ecs.Vector3) (RaycastHit, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var best RaycastHit
	found := false
	for _, e := range a.entities {
		entry, ok := a.frame[e]
		if !ok || entry.transform == nil {
			continue
		}
		pos, _ := entry.transform["position"].(ecs.Vector3)
		if origin.X < pos.X-8 || origin.X > pos.X+8 || origin.Y < pos.Y-8 || origin.Y > pos.Y+8 {
			continue
		}
		dist := (origin.X-pos.X)*(origin.X-pos.X) + (origin.Y-pos.Y)*(origin.Y-pos.Y)
		if !found || dist < best.Distance {
			best = RaycastHit{Entity: e, Point: pos, Distance: dist}
			found = true
		}
	}
	return best, found
}

// RaycastAll is Raycast's multi-hit counterpart: every entity whose 16x16
// draw bounds contain origin's X/Y, nearest first.
func (a *EbitenAdapter) RaycastAll(origin, dir ecs.Vector3) []RaycastHit {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var hits []RaycastHit
	for _, e := range a.entities {
		entry, ok := a.frame[e]
		if !ok || entry.transform == nil {
			continue
		}
		pos, _ := entry.transform["position"].(ecs.Vector3)
		if origin.X < pos.X-8 || origin.X > pos.X+8 || origin.Y < pos.Y-8 || origin.Y > pos.Y+8 {
			continue
		}
		dist := (origin.X-pos.X)*(origin.X-pos.X) + (origin.Y-pos.Y)*(origin.Y-pos.Y)
		hits = append(hits, RaycastHit{Entity: e, Point: pos, Distance: dist})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// --- InputSource ---

func (a *EbitenAdapter) IsKeyDown(key string) bool {
	k, ok := keyFromString(key)
	return ok && ebiten.IsKeyPressed(k)
}

func (a *EbitenAdapter) IsKeyPressed(key string) bool {
	k, ok := keyFromString(key)
	return ok && inpututil.IsKeyJustPressed(k)
}

func (a *EbitenAdapter) IsKeyReleased(key string) bool {
	k, ok := keyFromString(key)
	return ok && inpututil.IsKeyJustReleased(k)
}

func (a *EbitenAdapter) IsMouseButtonDown(button int) bool {
	return ebiten.IsMouseButtonPressed(ebiten.MouseButton(button))
}

func (a *EbitenAdapter) CursorPosition() (x, y float64) {
	cx, cy := ebiten.CursorPosition()
	return float64(cx), float64(cy)
}

// CursorDelta reports the cursor's movement since the last call, frozen
// for the script frame that reads it (scripts poll once per frame via
// the `input` surface).
func (a *EbitenAdapter) CursorDelta() (dx, dy float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	x, y := ebiten.CursorPosition()
	dx, dy = float64(x)-a.prevCursorX, float64(y)-a.prevCursorY
	a.prevCursorX, a.prevCursorY = float64(x), float64(y)
	return dx, dy
}

func (a *EbitenAdapter) WheelDelta() float64 {
	_, y := ebiten.Wheel()
	return y
}

// --- AudioSource ---

func (a *EbitenAdapter) Play(clip string, volume float64, loop bool, spatial bool) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pcm, ok := a.clips[clip]
	if !ok {
		return 0, nil
	}
	player, err := a.audioCtx.NewPlayer(bytes.NewReader(pcm))
	if err != nil {
		return 0, err
	}
	player.SetVolume(clamp01(volume))
	// loop is accepted but not looped by this reference adapter: gopher-lua
	// scripts that need continuous playback call audio.play again from an
	// on_update/timer callback instead of relying on player auto-repeat.
	_ = loop
	a.nextSoundID++
	id := a.nextSoundID
	a.players[id] = player
	player.Play()
	return id, nil
}

func (a *EbitenAdapter) Stop(soundID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.players[soundID]; ok {
		_ = p.Pause()
		delete(a.players, soundID)
	}
	delete(a.attachedTo, soundID)
	return nil
}

func (a *EbitenAdapter) StopClip(clip string) error {
	return nil
}

// AttachToEntity records that soundID's spatialization should follow e,
// or clears the attachment when follow is false. This 2D reference
// adapter doesn't pan by distance, but the attachment is tracked so a host
// with real stereo panning has somewhere to read it from.
func (a *EbitenAdapter) AttachToEntity(soundID int64, e ecs.EntityID, follow bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !follow {
		delete(a.attachedTo, soundID)
		return nil
	}
	a.attachedTo[soundID] = e
	return nil
}

func keyFromString(key string) (ebiten.Key, bool) {
	k, ok := keyNames[key]
	return k, ok
}

var keyNames = map[string]ebiten.Key{
	"a": ebiten.KeyA, "b": ebiten.KeyB, "c": ebiten.KeyC, "d": ebiten.KeyD,
	"e": ebiten.KeyE, "f": ebiten.KeyF, "g": ebiten.KeyG, "h": ebiten.KeyH,
	"i": ebiten.KeyI, "j": ebiten.KeyJ, "k": ebiten.KeyK, "l": ebiten.KeyL,
	"m": ebiten.KeyM, "n": ebiten.KeyN, "o": ebiten.KeyO, "p": ebiten.KeyP,
	"q": ebiten.KeyQ, "r": ebiten.KeyR, "s": ebiten.KeyS, "t": ebiten.KeyT,
	"u": ebiten.KeyU, "v": ebiten.KeyV, "w": ebiten.KeyW, "x": ebiten.KeyX,
	"y": ebiten.KeyY, "z": ebiten.KeyZ,
	"space": ebiten.KeySpace, "enter": ebiten.KeyEnter, "escape": ebiten.KeyEscape,
	"up": ebiten.KeyUp, "down": ebiten.KeyDown, "left": ebiten.KeyLeft, "right": ebiten.KeyRight,
	"shift": ebiten.KeyShift, "control": ebiten.KeyControl, "alt": ebiten.KeyAlt,
}
