package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/camera"
	"github.com/Carmen-Shannon/oxy-peel/engine/profiler"
	"github.com/Carmen-Shannon/oxy-peel/engine/window"
)

// FrameRenderer is the part of the renderer the engine drives each frame.
// renderer.Renderer satisfies it.
type FrameRenderer interface {
	Update(dt float32)
	Render() error
	Resize(width, height uint32) error
	Camera() camera.Camera
}

// engine implements the Engine interface.
// Ticks, uploads and renders on the window thread from inside the message loop.
type engine struct {
	mu *sync.Mutex

	window   window.Window
	renderer FrameRenderer
	look     *camera.MouseLook

	width  uint32
	height uint32
	// pendingWidth and pendingHeight hold the last resize event until the next frame applies it.
	pendingWidth  uint32
	pendingHeight uint32
	resizePending bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	accumulator      time.Duration
	lastFrame        time.Time
	now              func() time.Time
	sleep            func(time.Duration)

	tickCallback func(deltaTime float32)

	running  bool
	quitOnce sync.Once
	err      error

	frames  uint64
	skipped uint64
}

// Engine owns the frame loop of the demo. It routes window input to the camera, applies pending
// resizes between frames, and applies the surface recovery policy to every render error.
type Engine interface {
	// Window returns the window the engine presents to, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the function called each fixed-rate tick, before the camera update.
	//
	// Parameters:
	//   - callback: function receiving the tick length in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Resize records a new surface size. It is applied before the next frame; zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Frame runs one iteration of the loop: apply a pending resize, tick the camera, render and
	// handle the render error.
	//
	// Returns:
	//   - bool: false once the engine has stopped
	Frame() bool

	// Run drives Frame from the window message loop until the window closes or a fatal error occurs.
	//
	// Returns:
	//   - error: the fatal error that stopped the engine, or nil on a normal close
	Run() error

	// RunFrames runs n frames without a window.
	//
	// Parameters:
	//   - n: the number of frames to run
	//
	// Returns:
	//   - error: the fatal error that stopped the engine early, if any
	RunFrames(n int) error

	// Stats returns the number of rendered and skipped frames so far.
	//
	// Returns:
	//   - rendered: frames presented
	//   - skipped: frames dropped by the recovery policy
	Stats() (rendered, skipped uint64)

	// Quit stops the engine. Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine driving the given renderer. When a window is set through
// WithWindow the engine subscribes to its resize, keyboard and mouse events.
//
// Parameters:
//   - r: the renderer drawn each frame
//   - options: functional options for engine configuration (window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if r is nil
func NewEngine(r FrameRenderer, options ...EngineBuilderOption) (Engine, error) {
	if r == nil {
		return nil, errors.New("failed to create engine: renderer is nil")
	}
	e := &engine{
		mu:             &sync.Mutex{},
		renderer:       r,
		look:           camera.NewMouseLook(),
		engineTickRate: time.Second / 60,
		now:            time.Now,
		sleep:          time.Sleep,
		running:        true,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window != nil {
		if e.width == 0 || e.height == 0 {
			e.width, e.height = uint32(e.window.Width()), uint32(e.window.Height())
		}
		e.subscribe(e.window)
	}
	return e, nil
}

// subscribe routes the window's events into the engine.
func (e *engine) subscribe(w window.Window) {
	w.SetResizeCallback(e.Resize)
	w.SetKeyDownCallback(func(keyCode uint32) {
		e.key(keyCode, true)
	})
	w.SetKeyUpCallback(func(keyCode uint32) {
		e.key(keyCode, false)
	})
	w.SetMouseButtonCallback(e.look.SetButton)
	w.SetMouseMotionCallback(func(dx, dy float64) {
		e.look.Motion(e.controller(), dx, dy)
	})
	w.SetUpdateCallback(func() {
		if !e.Frame() {
			w.RequestClose()
		}
	})
}

func (e *engine) key(keyCode uint32, pressed bool) {
	if ctrl := e.controller(); ctrl != nil {
		ctrl.ProcessKeyboard(keyCode, pressed)
	}
}

func (e *engine) controller() camera.CameraController {
	return e.renderer.Camera().Controller()
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingWidth, e.pendingHeight = uint32(width), uint32(height)
	e.resizePending = true
}

func (e *engine) Frame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	frameStart := e.now()

	if e.resizePending {
		e.resizePending = false
		if err := e.applyResize(e.pendingWidth, e.pendingHeight); err != nil {
			e.stop(err)
			return false
		}
	}

	e.tick(frameStart)

	if err := e.renderer.Render(); err != nil {
		e.handleRenderError(err)
		return e.running
	}
	e.frames++
	if e.profilingEnabled {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
			e.sleep(remaining)
		}
	}
	return true
}

// tick advances the fixed-rate accumulator and updates the renderer once per whole tick elapsed.
// The first frame always runs a single tick so the uniforms are uploaded before it renders.
func (e *engine) tick(now time.Time) {
	if e.lastFrame.IsZero() {
		e.lastFrame = now
		e.accumulator = e.engineTickRate
	}
	e.accumulator += now.Sub(e.lastFrame)
	e.lastFrame = now

	// cap the catch-up after a stall
	if maxLag := 8 * e.engineTickRate; e.accumulator > maxLag {
		e.accumulator = maxLag
	}

	dt := float32(e.engineTickRate.Seconds())
	for e.accumulator >= e.engineTickRate {
		e.accumulator -= e.engineTickRate
		if e.tickCallback != nil {
			e.tickCallback(dt)
		}
		e.renderer.Update(dt)
	}
}

// applyResize forwards a recorded size to the renderer.
func (e *engine) applyResize(width, height uint32) error {
	if err := e.renderer.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize to %dx%d: %w", width, height, err)
	}
	e.width, e.height = width, height
	return nil
}

// handleRenderError applies the surface recovery policy. Lost and outdated surfaces are
// reconfigured at the current size and the frame is skipped; timeouts skip the frame; anything
// else stops the engine.
func (e *engine) handleRenderError(err error) {
	switch {
	case common.NeedsReconfigure(err):
		log.Printf("[Engine] surface needs reconfiguring, skipping frame: %v", err)
		e.skip()
		if rerr := e.applyResize(e.width, e.height); rerr != nil {
			e.stop(rerr)
		}
	case common.IsRecoverableSurfaceError(err):
		log.Printf("[Engine] surface timed out, skipping frame")
		e.skip()
	default:
		e.stop(fmt.Errorf("failed to render frame %d: %w", e.frames, err))
	}
}

func (e *engine) skip() {
	e.skipped++
	e.profiler.Skip()
}

// stop records the fatal error and halts the loop. The caller must hold mu.
func (e *engine) stop(err error) {
	log.Printf("[Engine] stopping: %v", err)
	if e.err == nil {
		e.err = err
	}
	e.running = false
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("failed to run engine: no window, use RunFrames for headless runs")
	}
	log.Printf("[Engine] running at %dx%d, tick %v", e.width, e.height, e.engineTickRate)
	e.window.ProcessMessages()
	e.Quit()
	return e.Err()
}

func (e *engine) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if !e.Frame() {
			break
		}
	}
	return e.Err()
}

func (e *engine) Stats() (rendered, skipped uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames, e.skipped
}

// Err returns the fatal error that stopped the engine.
func (e *engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		rendered, skipped := e.frames, e.skipped
		e.mu.Unlock()
		log.Printf("[Engine] quit after %d frames (%d skipped)", rendered, skipped)
	})
}
