// Package shaders embeds the WGSL sources used by the visibility pipeline.
package shaders

import _ "embed"

// CullSource is the frustum culling compute kernel.
//
//go:embed cull.wgsl
var CullSource string

// DrawSource is the demo vertex/fragment shader consuming the compacted
// command stream through a single indirect draw.
//
//go:embed draw.wgsl
var DrawSource string
