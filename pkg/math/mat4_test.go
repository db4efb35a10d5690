package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity() = false for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	if result != m {
		t.Errorf("M * I should equal M: got %v, want %v", result, m)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    [3]float32
		want [3]float32
	}{
		{"translate", Translate(10, 20, 30), [3]float32{1, 2, 3}, [3]float32{11, 22, 33}},
		{"scale", Scale(2, 2, 2), [3]float32{1, 2, 3}, [3]float32{2, 4, 6}},
		{"translate after scale", Translate(1, 0, 0).Mul(Scale(2, 2, 2)), [3]float32{1, 1, 1}, [3]float32{3, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); got != tt.want {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRotate90(t *testing.T) {
	tests := []struct {
		axis Axis
		p    [3]float32
		want [3]float32
	}{
		{AxisX, [3]float32{0, 1, 0}, [3]float32{0, 0, 1}},
		{AxisY, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{AxisZ, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.axis.String(), func(t *testing.T) {
			got := Rotate(tt.axis, Radians(90)).TransformPoint(tt.p)
			if !near(got, tt.want) {
				t.Errorf("Rotate(%v, 90) * %v = %v, want %v", tt.axis, tt.p, got, tt.want)
			}
		})
	}
}

func TestRotateAboutKeepsPivot(t *testing.T) {
	origin := [3]float32{8, 8, 8}
	m := RotateAbout(AxisY, Radians(45), origin)

	if got := m.TransformPoint(origin); !near(got, origin) {
		t.Errorf("pivot moved: got %v, want %v", got, origin)
	}

	// (16, 8, 8) sits on the rotation plane; 90 degrees takes it to (8, 8, 0).
	m = RotateAbout(AxisY, Radians(90), origin)
	if got := m.TransformPoint([3]float32{16, 8, 8}); !near(got, [3]float32{8, 8, 0}) {
		t.Errorf("RotateAbout Y 90: got %v, want (8, 8, 0)", got)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(5, 5, 5)
	d := [3]float32{0, 1, 0}
	if got := m.TransformDirection(d); got != d {
		t.Errorf("TransformDirection = %v, want %v", got, d)
	}
}

func TestApproxEqual(t *testing.T) {
	a := RotateZ(Radians(360))
	if !a.ApproxEqual(Identity(), 1e-5) {
		t.Errorf("full turn should be ~identity, got %v", a)
	}
	if Translate(1, 0, 0).ApproxEqual(Identity(), 1e-5) {
		t.Error("translation should not be ~identity")
	}
}

func near(a, b [3]float32) bool {
	for i := range a {
		if abs(a[i]-b[i]) > 0.001 {
			return false
		}
	}
	return true
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
