package timeline

const (
	// MinZoom and MaxZoom bound the pixels-per-second projection.
	MinZoom = 2.0
	MaxZoom = 50.0

	// ZoomStep is the multiplicative factor applied per zoom action, so
	// repeated zooming is self-similar at any starting zoom.
	ZoomStep = 1.5

	// MinTotalDuration keeps the ruler usable for a near-empty project.
	MinTotalDuration = 60.0
)

// SceneDuration returns the scene's effective length in seconds: the furthest
// clip end, floored at the scene's own stored duration so an empty scene
// still reserves its declared length.
func SceneDuration(s *Scene) float64 {
	d := s.Duration
	if d < 0 {
		d = 0
	}
	for _, c := range s.Clips {
		if end := c.End(); end > d {
			d = end
		}
	}
	return d
}

// TotalDuration sums SceneDuration over the given scenes, floored at
// MinTotalDuration. Callers pass the active member of each scene family
// (see the versions package); alternates do not add length twice.
func TotalDuration(scenes []*Scene) float64 {
	var total float64
	for _, s := range scenes {
		total += SceneDuration(s)
	}
	if total < MinTotalDuration {
		return MinTotalDuration
	}
	return total
}

// ClampZoom bounds a zoom factor to [MinZoom, MaxZoom] px/s.
func ClampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// ZoomIn returns the next zoom level after one zoom-in action.
func ZoomIn(zoom float64) float64 {
	return ClampZoom(ClampZoom(zoom) * ZoomStep)
}

// ZoomOut returns the next zoom level after one zoom-out action.
func ZoomOut(zoom float64) float64 {
	return ClampZoom(ClampZoom(zoom) / ZoomStep)
}

// ToPixels projects seconds onto pixel space at the given zoom.
func ToPixels(seconds, zoom float64) float64 {
	return seconds * ClampZoom(zoom)
}

// ToSeconds is the inverse of ToPixels.
func ToSeconds(pixels, zoom float64) float64 {
	return pixels / ClampZoom(zoom)
}
