// cullview opens a window, fills the scene with a grid of boxes and lets
// the GPU decide every frame which of them get drawn. The window title
// shows how many objects the registry holds; the culled count never
// reaches the host.
package main

import (
	"flag"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/DrapNard/vulkan-browser-engine/renderer"
	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
	"github.com/DrapNard/vulkan-browser-engine/renderer/gpu"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	gridSize := flag.Int("grid", 32, "Boxes per side of the scene grid")
	flag.Parse()

	cfg := renderer.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = renderer.LoadConfig(*configPath)
		if err != nil {
			core.LogFatal("load config: %v", err)
		}
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "cullview", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	ctx, surface, err := gpu.NewContextForWindow(window)
	if err != nil {
		core.LogFatal("gpu setup: %v", err)
	}
	defer ctx.Release()

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(ctx.Adapter)
	format := caps.Formats[0]
	surfaceCfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(ctx.Adapter, ctx.Device, surfaceCfg)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			return
		}
		surfaceCfg.Width = uint32(width)
		surfaceCfg.Height = uint32(height)
		surface.Configure(ctx.Adapter, ctx.Device, surfaceCfg)
	})

	pipeline, err := renderer.NewPipeline(ctx, cfg, format)
	if err != nil {
		core.LogFatal("create pipeline: %v", err)
	}
	defer pipeline.Release()

	handles := populateScene(pipeline.Registry, *gridSize)
	core.LogInfo("scene populated: %d boxes", len(handles))

	camera := core.NewCameraState()
	camera.Position = mgl32.Vec3{0, 6, 0}

	start := time.Now()
	lastLog := start
	for !window.ShouldClose() {
		glfw.PollEvents()

		t := float32(time.Since(start).Seconds())
		camera.Yaw = t * 0.4
		camera.Aspect = float32(surfaceCfg.Width) / float32(surfaceCfg.Height)

		animateScene(pipeline.Registry, handles, t)

		frame, err := surface.GetCurrentTexture()
		if err != nil {
			core.LogWarn("GetCurrentTexture: %v, reconfiguring", err)
			surface.Configure(ctx.Adapter, ctx.Device, surfaceCfg)
			continue
		}
		view, err := frame.CreateView(nil)
		if err != nil {
			core.LogError("CreateView: %v", err)
			continue
		}

		if err := pipeline.Frame(camera.GetViewProjection(), view); err != nil {
			core.LogFatal("frame: %v", err)
		}

		surface.Present()
		view.Release()
		frame.Release()

		if time.Since(lastLog) > 2*time.Second {
			s := pipeline.Stats()
			window.SetTitle(fmt.Sprintf("cullview - %d objects, capacity %d", s.ObjectCount, s.Capacity))
			if s.Overflow {
				core.LogWarn("a recent frame was lossy (capacity %d)", s.Capacity)
			}
			lastLog = time.Now()
		}
	}

	if err := pipeline.Flush(); err != nil {
		core.LogError("flush: %v", err)
	}
}

// populateScene fills the registry with a grid of unit boxes on the XZ
// plane. FirstInstance carries the object's index so the draw shader can
// fetch its bounds.
func populateScene(reg *core.Registry, side int) []core.Handle {
	handles := make([]core.Handle, 0, side*side)
	half := float32(side) / 2
	for x := 0; x < side; x++ {
		for z := 0; z < side; z++ {
			center := mgl32.Vec3{
				(float32(x) - half) * 3,
				0,
				(float32(z) - half) * 3,
			}
			aabb := core.AABB{
				Min: center.Sub(mgl32.Vec3{0.5, 0.5, 0.5}),
				Max: center.Add(mgl32.Vec3{0.5, 0.5, 0.5}),
			}
			h := reg.Add(aabb, core.DrawParams{
				VertexCount:   36,
				InstanceCount: 1,
				FirstInstance: uint32(len(handles)),
			})
			handles = append(handles, h)
		}
	}
	return handles
}

// animateScene bobs every box up and down so bounds updates flow through
// the registry each frame.
func animateScene(reg *core.Registry, handles []core.Handle, t float32) {
	side := int(math.Sqrt(float64(len(handles))))
	half := float32(side) / 2
	for i, h := range handles {
		y := float32(math.Sin(float64(t + float32(i)*0.1)))
		cx := (float32(i/side) - half) * 3
		cz := (float32(i%side) - half) * 3
		aabb := core.AABB{
			Min: mgl32.Vec3{cx - 0.5, y - 0.5, cz - 0.5},
			Max: mgl32.Vec3{cx + 0.5, y + 0.5, cz + 0.5},
		}
		if err := reg.Update(h, aabb); err != nil {
			core.LogError("update box %d: %v", i, err)
		}
	}
}
