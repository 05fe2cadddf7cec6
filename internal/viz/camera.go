package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// Camera projects world positions onto a canvas. It orbits Center and
// frames a sphere of radius Extent.
type Camera struct {
	Center     dynamo.Vec
	Extent     float64
	RotX, RotY float64
	Zoom       float64
	Distance   float64
}

func NewCamera() *Camera {
	return &Camera{Extent: 5, Zoom: 1, Distance: 4, RotX: -0.35, RotY: 0.6}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Fit centers the camera on the box [lo, hi].
func (c *Camera) Fit(lo, hi dynamo.Vec) {
	c.Center = lo.Add(hi).Mul(0.5)
	c.Extent = math.Max(hi.Sub(lo).Len()/2, 1)
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.RotX).Mul3(mgl64.Rotate3DY(c.RotY))
}

// view maps p into camera space, normalized so the framed sphere spans
// [-1, 1] before perspective.
func (c *Camera) view(p dynamo.Vec) dynamo.Vec {
	return c.rotation().Mul3x1(p.Sub(c.Center)).Mul(c.Zoom / c.Extent)
}

// Project converts p to dot coordinates on an sw x sh canvas. It returns
// the dot position, the camera-space depth (larger is closer) and whether
// the point is in front of the camera and on screen.
func (c *Camera) Project(p dynamo.Vec, sw, sh int) (int, int, float64, bool) {
	v := c.view(p)
	persp, ok := c.perspective(v[2])
	if !ok {
		return 0, 0, 0, false
	}
	half := float64(min(sw, sh)) / 2 * 0.9
	sx := int(math.Round(v[0]*persp*half)) + sw/2
	sy := int(math.Round(-v[1]*persp*half)) + sh/2
	return sx, sy, v[2], sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// ProjectRadius returns the on-screen radius in dots of a sphere of radius
// r centered at p.
func (c *Camera) ProjectRadius(p dynamo.Vec, r float64, sw, sh int) int {
	v := c.view(p)
	persp, ok := c.perspective(v[2])
	if !ok {
		return 0
	}
	half := float64(min(sw, sh)) / 2 * 0.9
	return int(math.Round(r * c.Zoom / c.Extent * persp * half))
}

func (c *Camera) perspective(z float64) (float64, bool) {
	d := c.Distance
	if z >= d-0.1 {
		return 0, false
	}
	return d / (d - z), true
}
