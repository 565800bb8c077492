// Command demo is a minimal ebiten host exercising engine.Instance
// end-to-end: it loads a config, constructs an instance, binds the
// reference EbitenAdapter, spawns one scripted entity, and runs the
// standard ebiten game loop. It is reference wiring, not a game.
package main

import (
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"enginecore/internal/ecs"
	"enginecore/internal/engine"
	"enginecore/internal/render"
)

const demoScript = `
function on_start()
  console.log("demo entity started")
end

function on_update(dt)
  transform.translate(0, 0, 0)
end
`

type demoGame struct {
	inst    *engine.Instance
	adapter *render.EbitenAdapter
}

func (g *demoGame) Update() error {
	return g.inst.Tick(1.0 / 60.0)
}

func (g *demoGame) Draw(screen *ebiten.Image) {
	g.adapter.Draw(screen)
}

func (g *demoGame) Layout(_, _ int) (int, int) {
	return 1280, 720
}

func run() error {
	cfg := engine.DefaultConfig()
	if path := os.Getenv("ENGINECORE_CONFIG"); path != "" {
		loaded, err := engine.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	inst, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer inst.Dispose()

	adapter := render.NewEbitenAdapter(44100)
	inst.BindRenderer(adapter)

	e, err := inst.Store.CreateEntity("demo", nil)
	if err != nil {
		return err
	}
	if err := inst.Registry.AddComponent(e, ecs.ComponentMeshRenderer, map[string]any{"mesh": "cube", "visible": true}); err != nil {
		return err
	}
	if err := inst.Registry.AddComponent(e, ecs.ComponentMaterial, map[string]any{"color": ecs.Color{R: 1, G: 1, B: 1, A: 1}}); err != nil {
		return err
	}
	if err := inst.Scripts.AttachScript(e, demoScript); err != nil {
		return err
	}

	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("enginecore demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(&demoGame{inst: inst, adapter: adapter})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
