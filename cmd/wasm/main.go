//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/nisshchayarathi/drawing-app/internal/client"
	"github.com/nisshchayarathi/drawing-app/internal/config"
	"github.com/nisshchayarathi/drawing-app/internal/engine"
	"github.com/nisshchayarathi/drawing-app/internal/geom"
)

var errMissingConfig = errors.New("start: missing config")

var (
	session  *client.Session
	measurer geom.Measurer
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	m, err := geom.NewFontMeasurer()
	if err != nil {
		slog.Error("load font", "error", err)
		return
	}
	measurer = m

	api := js.Global().Get("Object").New()

	// --- Lifecycle ---
	api.Set("start", js.FuncOf(start))

	// --- Input (canvas → engine) ---
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("pointerDown", js.FuncOf(pointer(func(e *engine.Engine, ev engine.PointerEvent) { e.PointerDown(ev) })))
	api.Set("pointerMove", js.FuncOf(pointer(func(e *engine.Engine, ev engine.PointerEvent) { e.PointerMove(ev) })))
	api.Set("pointerUp", js.FuncOf(pointer(func(e *engine.Engine, ev engine.PointerEvent) { e.PointerUp(ev) })))
	api.Set("pointerLeave", js.FuncOf(pointerLeave))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("textInput", js.FuncOf(textInput))
	api.Set("textBlur", js.FuncOf(textBlur))

	// --- Queries (engine → canvas) ---
	api.Set("render", js.FuncOf(render))
	api.Set("getCursor", js.FuncOf(getCursor))
	api.Set("getTextOverlay", js.FuncOf(getTextOverlay))
	api.Set("getVersion", js.FuncOf(getVersion))

	js.Global().Set("drawingEngine", api)
	js.Global().Set("drawingWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

// start(configJSON, onChange) joins a room and returns a Promise that settles once
// the persisted shapes are loaded and the relay is connected. onChange(version) is
// called whenever the board needs a redraw.
func start(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult(errMissingConfig)
	}
	var cfg config.Client
	if err := json.Unmarshal([]byte(args[0].String()), &cfg); err != nil {
		return errorResult(err)
	}
	var onChange js.Value
	if len(args) > 1 && args[1].Type() == js.TypeFunction {
		onChange = args[1]
	}

	handler := js.FuncOf(func(this js.Value, p []js.Value) interface{} {
		resolve, reject := p[0], p[1]
		go func() {
			s, err := client.New(context.Background(), client.Options{
				Config:   cfg,
				Measurer: measurer,
				// Off the owner goroutine, so the callback may call render directly.
				OnChange: func(version uint64) {
					if onChange.Truthy() {
						go onChange.Invoke(float64(version))
					}
				},
			})
			if err != nil {
				reject.Invoke(err.Error())
				return
			}
			go s.Run(context.Background())
			if err := s.Start(context.Background()); err != nil {
				reject.Invoke(err.Error())
				return
			}
			session = s
			resolve.Invoke(true)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

// call runs fn on the session's owner goroutine. Before start has settled it is a no-op.
func call(fn func(e *engine.Engine)) bool {
	if session == nil {
		return false
	}
	return session.Call(fn) == nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	var err error
	call(func(e *engine.Engine) { err = e.SetTool(engine.Tool(args[0].String())) })
	if err != nil {
		return errorResult(err)
	}
	return nil
}

func pointer(fn func(e *engine.Engine, ev engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		ev := engine.PointerEvent{X: args[0].Float(), Y: args[1].Float()}
		call(func(e *engine.Engine) { fn(e, ev) })
		return nil
	}
}

func pointerLeave(this js.Value, args []js.Value) interface{} {
	call(func(e *engine.Engine) { e.PointerLeave() })
	return nil
}

// wheel(x, y, deltaX, deltaY, ctrlKey)
func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	ev := engine.WheelEvent{
		X:      args[0].Float(),
		Y:      args[1].Float(),
		DeltaX: args[2].Float(),
		DeltaY: args[3].Float(),
		Ctrl:   len(args) > 4 && args[4].Truthy(),
	}
	call(func(e *engine.Engine) { e.Wheel(ev) })
	return nil
}

// keyDown returns true when the key was consumed and the host should prevent its
// default action.
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	key := args[0].String()
	var handled bool
	call(func(e *engine.Engine) { handled = e.KeyDown(key) })
	return js.ValueOf(handled)
}

func textInput(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	value := args[0].String()
	call(func(e *engine.Engine) { e.TextInput(value) })
	return nil
}

func textBlur(this js.Value, args []js.Value) interface{} {
	call(func(e *engine.Engine) { e.TextBlur() })
	return nil
}

func render(this js.Value, args []js.Value) interface{} {
	var cmds []engine.DrawCommand
	if !call(func(e *engine.Engine) { cmds = e.Render() }) {
		return js.ValueOf("[]")
	}
	out, err := engine.DrawCommandsToJSON(cmds)
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func getCursor(this js.Value, args []js.Value) interface{} {
	cursor := "default"
	call(func(e *engine.Engine) { cursor = e.Cursor() })
	return js.ValueOf(cursor)
}

// getTextOverlay returns the inline editor's geometry as JSON, or null when no
// editor is open.
func getTextOverlay(this js.Value, args []js.Value) interface{} {
	var (
		overlay engine.Overlay
		open    bool
	)
	call(func(e *engine.Engine) { overlay, open = e.TextOverlay() })
	if !open {
		return js.Null()
	}
	data, err := json.Marshal(overlay)
	if err != nil {
		return js.Null()
	}
	return js.ValueOf(string(data))
}

func getVersion(this js.Value, args []js.Value) interface{} {
	var v uint64
	call(func(e *engine.Engine) { v = e.Version() })
	return js.ValueOf(float64(v))
}
