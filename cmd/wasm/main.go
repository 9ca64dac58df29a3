//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
	"github.com/archcanvas/archcanvas/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	// Replaced by init once the host has fetched /api/canvas/settings
	eng = engine.NewEngine(engine.DefaultSettings())

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	canvasEngine.Set("init", js.FuncOf(initEngine))
	canvasEngine.Set("getSettings", js.FuncOf(getSettings))

	// --- Commands (frontend → backend) ---
	canvasEngine.Set("loadDiagram", js.FuncOf(loadDiagram))
	canvasEngine.Set("loadSampleDiagram", js.FuncOf(loadSampleDiagram))
	canvasEngine.Set("setScreenSize", js.FuncOf(setScreenSize))
	canvasEngine.Set("setScrollOffset", js.FuncOf(setScrollOffset))
	canvasEngine.Set("setTool", js.FuncOf(setTool))
	canvasEngine.Set("setAnnotationKind", js.FuncOf(setAnnotationKind))
	canvasEngine.Set("pointerDown", js.FuncOf(pointerDown))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))
	canvasEngine.Set("pointerUp", js.FuncOf(pointerUp))
	canvasEngine.Set("cancel", js.FuncOf(cancel))
	canvasEngine.Set("confirmDeleteLink", js.FuncOf(confirmDeleteLink))
	canvasEngine.Set("command", js.FuncOf(command))
	canvasEngine.Set("dropComponent", js.FuncOf(dropComponent))
	canvasEngine.Set("updateCursor", js.FuncOf(updateCursor))
	canvasEngine.Set("removeCursor", js.FuncOf(removeCursor))

	// --- Queries (frontend ← backend) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("getDiagram", js.FuncOf(getDiagram))
	canvasEngine.Set("getViewport", js.FuncOf(getViewport))
	canvasEngine.Set("getToolState", js.FuncOf(getToolState))

	// Register on global scope
	js.Global().Set("archCanvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("archCanvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okValue() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func resultValue(err error) js.Value {
	if err != nil {
		return errorValue(err.Error())
	}
	return okValue()
}

func outcomeValue(out engine.Outcome, err error) js.Value {
	if err != nil {
		return errorValue(err.Error())
	}
	result := map[string]interface{}{"ok": true}
	if out.SelectedNodeID != "" {
		result["selectedNodeId"] = out.SelectedNodeID
	}
	if out.CreatedNodeID != "" {
		result["createdNodeId"] = out.CreatedNodeID
	}
	if out.CreatedLinkID != "" {
		result["createdLinkId"] = out.CreatedLinkID
	}
	if out.ConfirmDeleteLink != "" {
		result["confirmDeleteLink"] = out.ConfirmDeleteLink
	}
	if out.Notice != "" {
		result["notice"] = out.Notice
	}
	return js.ValueOf(result)
}

// point reads two numeric arguments.
func point(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 || args[0].Type() != js.TypeNumber || args[1].Type() != js.TypeNumber {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Command Handlers ---

// initEngine(settingsJSON) replaces the engine with one built from the
// server's canvas settings. Fields missing from the JSON keep their defaults.
func initEngine(this js.Value, args []js.Value) interface{} {
	settings, err := parseSettings(args)
	if err != nil {
		return errorValue(err.Error())
	}
	eng = engine.NewEngine(settings)
	return okValue()
}

func parseSettings(args []js.Value) (engine.Settings, error) {
	settings := engine.DefaultSettings()
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(args[0].String()), &settings); err != nil {
		return engine.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return engine.Settings{}, err
	}
	return settings, nil
}

func loadDiagram(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing diagram JSON")
	}
	return resultValue(eng.LoadDiagram(args[0].String()))
}

func loadSampleDiagram(this js.Value, args []js.Value) interface{} {
	return resultValue(eng.LoadSampleDiagram())
}

func setScreenSize(this js.Value, args []js.Value) interface{} {
	w, h, ok := point(args)
	if !ok {
		return errorValue("expected width, height")
	}
	eng.SetScreenSize(w, h)
	return okValue()
}

func setScrollOffset(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return errorValue("expected x, y")
	}
	eng.SetScrollOffset(x, y)
	return okValue()
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing tool name")
	}
	return resultValue(eng.SetTool(args[0].String()))
}

func setAnnotationKind(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing annotation kind")
	}
	return resultValue(eng.SetAnnotationKind(args[0].String()))
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return errorValue("expected x, y")
	}
	return outcomeValue(eng.PointerDown(x, y))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return errorValue("expected x, y")
	}
	return outcomeValue(eng.PointerMove(x, y))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		// A release the canvas could not place is a cancel.
		eng.Cancel()
		return okValue()
	}
	return outcomeValue(eng.PointerUp(x, y))
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func confirmDeleteLink(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("expected link id, accepted")
	}
	return resultValue(eng.ConfirmDeleteLink(args[0].String(), args[1].Truthy()))
}

func command(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing command")
	}
	return resultValue(eng.Command(args[0].String()))
}

// dropComponent(x, y, templateJSON)
func dropComponent(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok || len(args) < 3 {
		return errorValue("expected x, y, template JSON")
	}
	var tpl document.ComponentTemplate
	if err := json.Unmarshal([]byte(args[2].String()), &tpl); err != nil {
		return errorValue("invalid template: " + err.Error())
	}
	id, err := eng.DropComponent(x, y, tpl)
	if err != nil {
		return errorValue(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "createdNodeId": id})
}

func updateCursor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing cursor JSON")
	}
	var c document.Cursor
	if err := json.Unmarshal([]byte(args[0].String()), &c); err != nil {
		return errorValue("invalid cursor: " + err.Error())
	}
	eng.UpdateCursor(c)
	return okValue()
}

func removeCursor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.RemoveCursor(args[0].String())
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return js.Null()
	}
	id := eng.HitTest(x, y)
	if id == "" {
		return js.Null()
	}
	return js.ValueOf(id)
}

func getDiagram(this js.Value, args []js.Value) interface{} {
	data, err := eng.GetDiagram()
	if err != nil {
		return js.Null()
	}
	return js.ValueOf(data)
}

func getViewport(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetViewport())
}

func getSettings(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Settings())
	if err != nil {
		return js.Null()
	}
	return js.ValueOf(string(data))
}

func getToolState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetToolState())
}
