package geometry

import "fmt"

// ReferenceFrame names the frame an orientation is measured from.
type ReferenceFrame string

const (
	// NadirPointing has +Z towards nadir, +Y along the negative orbit
	// normal and +X completing the right-handed triad (roughly along velocity).
	NadirPointing ReferenceFrame = "NADIR_POINTING"
	// SCBodyFixed is the spacecraft bus frame.
	SCBodyFixed ReferenceFrame = "SC_BODY_FIXED"
)

// Convention names the way an orientation's rotation was specified.
type Convention string

const (
	RefFrameAligned Convention = "REF_FRAME_ALIGNED"
	SideLook        Convention = "SIDE_LOOK"
	XYZ             Convention = "XYZ"
	Euler           Convention = "EULER"
)

// Orientation is a rotation of a child frame (sensor, bus, pointing option)
// relative to a reference frame. Angles are in radians.
type Orientation struct {
	Frame      ReferenceFrame
	Convention Convention
	Sequence   [3]int
	Angles     [3]float64
}

// Aligned returns an orientation coincident with frame.
func Aligned(frame ReferenceFrame) Orientation {
	return Orientation{Frame: frame, Convention: RefFrameAligned, Sequence: [3]int{1, 2, 3}}
}

// SideLooking returns a pure roll about the frame's X axis. A positive roll
// tilts the boresight towards the -Y axis.
func SideLooking(frame ReferenceFrame, roll float64) Orientation {
	return Orientation{Frame: frame, Convention: SideLook, Sequence: [3]int{1, 2, 3}, Angles: [3]float64{roll, 0, 0}}
}

// XYZRotation rotates about X, then Y, then Z.
func XYZRotation(frame ReferenceFrame, x, y, z float64) Orientation {
	return Orientation{Frame: frame, Convention: XYZ, Sequence: [3]int{1, 2, 3}, Angles: [3]float64{x, y, z}}
}

// EulerRotation rotates about the axes in seq by the matching angles.
func EulerRotation(frame ReferenceFrame, seq [3]int, angles [3]float64) Orientation {
	return Orientation{Frame: frame, Convention: Euler, Sequence: seq, Angles: angles}
}

// DCM returns the reference-frame-to-child rotation.
func (o Orientation) DCM() (DCM, error) {
	c, err := EulerDCM(o.Sequence, o.Angles)
	if err != nil {
		return DCM{}, fmt.Errorf("orientation %s: %w", o.Convention, err)
	}
	return c, nil
}

// SensorToNadir composes a sensor orientation with the spacecraft bus
// orientation and returns the nadir-frame-to-sensor rotation. The bus must be
// given relative to the nadir-pointing frame. A sensor given relative to the
// bus is rotated through it; a sensor given relative to nadir ignores the bus.
func SensorToNadir(bus, sensor Orientation) (DCM, error) {
	if bus.Frame != NadirPointing {
		return DCM{}, fmt.Errorf("bus orientation frame %q, want %q", bus.Frame, NadirPointing)
	}
	cs, err := sensor.DCM()
	if err != nil {
		return DCM{}, err
	}
	switch sensor.Frame {
	case NadirPointing:
		return cs, nil
	case SCBodyFixed:
		cb, err := bus.DCM()
		if err != nil {
			return DCM{}, err
		}
		return cs.Mul(cb), nil
	default:
		return DCM{}, fmt.Errorf("unknown reference frame %q", sensor.Frame)
	}
}

// NadirFrame returns the inertial-to-nadir-pointing rotation for a spacecraft
// at position r with velocity v. ok is false when r and v are parallel or zero.
func NadirFrame(r, v Vec3) (c DCM, ok bool) {
	z, okZ := r.Scale(-1).Unit()
	h := r.Cross(v)
	y, okY := h.Scale(-1).Unit()
	if !okZ || !okY {
		return DCM{}, false
	}
	x := y.Cross(z)
	return FromRows(x, y, z), true
}
