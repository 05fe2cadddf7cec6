package connection

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/force"
)

type testNode struct {
	pos, vel, angVel dynamo.Vec
	orientation      dynamo.Quat
	force, torque    dynamo.Vec
}

func newTestNode(p dynamo.Vec) *testNode {
	return &testNode{pos: p, orientation: mgl64.QuatIdent()}
}

func (n *testNode) Position() dynamo.Vec        { return n.pos }
func (n *testNode) Velocity() dynamo.Vec        { return n.vel }
func (n *testNode) Orientation() dynamo.Quat    { return n.orientation }
func (n *testNode) AngularVelocity() dynamo.Vec { return n.angVel }
func (n *testNode) AddForce(f dynamo.Vec)       { n.force = n.force.Add(f) }
func (n *testNode) AddTorque(t dynamo.Vec)      { n.torque = n.torque.Add(t) }

func TestConnectionLengthDirection(t *testing.T) {
	a := newTestNode(dynamo.Vec{0, 0, 0})
	b := newTestNode(dynamo.Vec{0, 3, 4})
	c := New(a, b, force.NewSpring(1, 0, 5))

	if math.Abs(c.Length()-5) > 1e-12 {
		t.Errorf("expected length 5, got %v", c.Length())
	}
	if !c.Direction().ApproxEqual(dynamo.Vec{0, 0.6, 0.8}) {
		t.Errorf("unexpected direction %v", c.Direction())
	}
}

func TestConnectionSpringForces(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		wantA    float64 // x force on node A
	}{
		{"stretched pulls together", 3, 1},
		{"compressed pushes apart", 1, -1},
		{"at rest", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestNode(dynamo.Vec{0, 0, 0})
			b := newTestNode(dynamo.Vec{tt.distance, 0, 0})
			c := New(a, b, force.NewSpring(1, 0, 2))
			c.ComputeForces(0.01)

			if math.Abs(a.force[0]-tt.wantA) > 1e-12 {
				t.Errorf("force on A = %v, want x=%v", a.force, tt.wantA)
			}
			if !a.force.Add(b.force).ApproxEqual(dynamo.Zero) {
				t.Errorf("forces must be opposite: %v vs %v", a.force, b.force)
			}
		})
	}
}

func TestConnectionDampingOpposesSeparation(t *testing.T) {
	a := newTestNode(dynamo.Vec{0, 0, 0})
	b := newTestNode(dynamo.Vec{2, 0, 0})
	b.vel = dynamo.Vec{1, 0, 0}

	c := New(a, b, force.NewSpring(0, 3, 2))
	c.ComputeForces(0.01)

	if math.Abs(b.force[0]+3) > 1e-12 {
		t.Errorf("expected damping force -3 on B, got %v", b.force)
	}
}

func TestConnectionStaticPoint(t *testing.T) {
	p := NewSpacePoint(dynamo.Vec{0, 0, 0})
	b := newTestNode(dynamo.Vec{0, 2, 0})

	c := New(p, b, force.NewSpring(1, 0, 1))
	c.ComputeForces(0.01)

	if math.Abs(b.force[1]+1) > 1e-12 {
		t.Errorf("expected pull toward anchor, got %v", b.force)
	}
	if p.Position() != (dynamo.Vec{0, 0, 0}) {
		t.Error("space point must not move")
	}
}

func TestConnectionJointsConserveMomentum(t *testing.T) {
	a := newTestNode(dynamo.Vec{0, 0, 0})
	b := newTestNode(dynamo.Vec{1, 0, 0})

	c := New(a, b, force.NewSpring(0, 0, 1))
	c.WithJoints(
		[2]force.Joint{force.NewJoint(1, 0, math.Pi/2), force.NewJoint(1, 0, math.Pi/2)},
		force.NewTorsion(1, 0, math.Pi/2),
	)

	// bend: move B sideways
	b.pos = dynamo.Vec{math.Cos(0.1), math.Sin(0.1), 0}
	c.ComputeForces(0.01)

	if a.torque.LenSqr() == 0 || b.torque.LenSqr() == 0 {
		t.Fatal("expected bending torques on both endpoints")
	}
	if !a.force.Add(b.force).ApproxEqualThreshold(dynamo.Zero, 1e-12) {
		t.Errorf("net force must be zero, got %v", a.force.Add(b.force))
	}
	// A's reference (+x) turns toward B (+y side): positive z torque
	if a.torque[2] <= 0 {
		t.Errorf("expected positive z torque on A, got %v", a.torque)
	}
}

func TestConnectionJointsDisabled(t *testing.T) {
	a := newTestNode(dynamo.Vec{0, 0, 0})
	b := newTestNode(dynamo.Vec{1, 0, 0})

	c := New(a, b, force.NewSpring(0, 0, 1))
	c.WithJoints(
		[2]force.Joint{force.NewJoint(1, 0, math.Pi/2), force.NewJoint(1, 0, math.Pi/2)},
		force.NewTorsion(1, 0, math.Pi/2),
	)
	c.JointsEnabled = false

	b.pos = dynamo.Vec{0, 1, 0}
	c.ComputeForces(0.01)

	if a.torque != dynamo.Zero || b.torque != dynamo.Zero {
		t.Errorf("expected no torque, got %v / %v", a.torque, b.torque)
	}
}
