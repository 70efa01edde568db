package timeline

import (
	"math"
	"testing"
)

func TestSceneDuration(t *testing.T) {
	tests := []struct {
		name  string
		scene *Scene
		want  float64
	}{
		{"empty scene keeps declared duration", &Scene{Duration: 12}, 12},
		{"negative stored duration floors at zero", &Scene{Duration: -3}, 0},
		{
			"clips extend past declared duration",
			&Scene{Duration: 4, Clips: []*Clip{
				{ID: "a", TimelinePosition: 0, Length: 5},
				{ID: "b", TimelinePosition: 5, Length: 3},
			}},
			8,
		},
		{
			"declared duration wins over short clips",
			&Scene{Duration: 20, Clips: []*Clip{
				{ID: "a", TimelinePosition: 0, Length: 5},
			}},
			20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SceneDuration(tt.scene); got != tt.want {
				t.Errorf("SceneDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	tests := []struct {
		name   string
		scenes []*Scene
		want   float64
	}{
		{"no scenes floors at minimum", nil, MinTotalDuration},
		{"short project floors at minimum", []*Scene{{Duration: 10}}, MinTotalDuration},
		{
			"long project sums scene durations",
			[]*Scene{
				{Duration: 40},
				{Duration: 10, Clips: []*Clip{{ID: "a", TimelinePosition: 20, Length: 15}}},
			},
			75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalDuration(tt.scenes); got != tt.want {
				t.Errorf("TotalDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZoomStepAndClamp(t *testing.T) {
	tests := []struct {
		name string
		zoom float64
		in   bool
		want float64
	}{
		{"zoom in multiplies by step", 10, true, 15},
		{"zoom in clamps at max", 40, true, 50},
		{"zoom out divides by step", 15, false, 10},
		{"zoom out clamps at min", 2.5, false, 2},
		{"zoom in from below min clamps first", 0.5, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZoomOut(tt.zoom)
			if tt.in {
				got = ZoomIn(tt.zoom)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("zoom step = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelProjection_RoundTrip(t *testing.T) {
	zooms := []float64{2, 5, 10, 33.7, 50}
	pixels := []float64{0, 1, 17.5, 480, 19200}

	for _, z := range zooms {
		for _, p := range pixels {
			if got := ToPixels(ToSeconds(p, z), z); math.Abs(got-p) > 1e-9 {
				t.Errorf("ToPixels(ToSeconds(%v, %v)) = %v, want %v", p, z, got, p)
			}
		}
	}
}

func TestPixelProjection_ClampsZoom(t *testing.T) {
	if got := ToPixels(10, 100); got != 10*MaxZoom {
		t.Errorf("ToPixels with oversized zoom = %v, want %v", got, 10*MaxZoom)
	}
	if got := ToPixels(10, 0.1); got != 10*MinZoom {
		t.Errorf("ToPixels with undersized zoom = %v, want %v", got, 10*MinZoom)
	}
}
