package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/DrapNard/vulkan-browser-engine/renderer/core"
)

// Context owns the WebGPU instance, adapter, device and queue shared by
// the culling and draw stages.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// NewContext requests a high-performance adapter and device without a
// surface, for headless culling.
func NewContext() (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	return newContext(instance, nil)
}

// NewContextForWindow creates the context plus a surface for the window.
func NewContextForWindow(window *glfw.Window) (*Context, *wgpu.Surface, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
	ctx, err := newContext(instance, surface)
	if err != nil {
		return nil, nil, err
	}
	return ctx, surface, nil
}

func newContext(instance *wgpu.Instance, surface *wgpu.Surface) (*Context, error) {
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}

	info := adapter.GetInfo()
	core.LogInfo("gpu context ready: %s (%s)", info.Name, info.VendorName)

	return &Context{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
	}
	if c.Adapter != nil {
		c.Adapter.Release()
	}
	if c.Instance != nil {
		c.Instance.Release()
	}
}
