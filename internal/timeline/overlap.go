package timeline

import "sort"

// Overlap describes one pair of clips whose settled intervals intersect.
type Overlap struct {
	ClipID      string  `json:"clip_id"`
	OtherClipID string  `json:"other_clip_id"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
}

// Report is the aggregate overlap analysis for one scene. It mirrors the
// backend's timeline-analysis response so the stub client and the real
// backend are interchangeable.
type Report struct {
	SceneID   string    `json:"scene_id,omitempty"`
	HasIssues bool      `json:"has_issues"`
	Overlaps  []Overlap `json:"overlaps"`
}

// intervalsOverlap tests half-open intervals [aStart, aEnd) and [bStart, bEnd).
func intervalsOverlap(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd && bStart < aEnd
}

// FindOverlap returns the first clip whose interval intersects
// [position, position+length), or nil when the proposed placement is free.
// The clip identified by clipID is skipped so a clip never collides with
// itself during a move.
func FindOverlap(clips []*Clip, clipID string, position, length float64) *Clip {
	end := position + length
	for _, c := range clips {
		if c.ID == clipID {
			continue
		}
		if intervalsOverlap(position, end, c.TimelinePosition, c.End()) {
			return c
		}
	}
	return nil
}

// NextFreePosition returns the earliest position at or after the requested
// one where a clip of the given length fits without colliding. Clips are
// walked in position order; each collision pushes the candidate to the
// blocking clip's end.
func NextFreePosition(clips []*Clip, clipID string, position, length float64) float64 {
	if position < 0 {
		position = 0
	}

	others := make([]*Clip, 0, len(clips))
	for _, c := range clips {
		if c.ID != clipID {
			others = append(others, c)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		return others[i].TimelinePosition < others[j].TimelinePosition
	})

	candidate := position
	for _, c := range others {
		if intervalsOverlap(candidate, candidate+length, c.TimelinePosition, c.End()) {
			candidate = c.End()
		}
	}
	return candidate
}

// Analyze produces the pairwise overlap report for a scene's clip set.
// Settled state should contain no overlaps; a non-empty report is a warning
// surfaced to the user, not an error.
func Analyze(sceneID string, clips []*Clip) *Report {
	report := &Report{SceneID: sceneID, Overlaps: []Overlap{}}

	for i := 0; i < len(clips); i++ {
		for j := i + 1; j < len(clips); j++ {
			a, b := clips[i], clips[j]
			if !intervalsOverlap(a.TimelinePosition, a.End(), b.TimelinePosition, b.End()) {
				continue
			}
			start := a.TimelinePosition
			if b.TimelinePosition > start {
				start = b.TimelinePosition
			}
			end := a.End()
			if b.End() < end {
				end = b.End()
			}
			report.Overlaps = append(report.Overlaps, Overlap{
				ClipID:      a.ID,
				OtherClipID: b.ID,
				Start:       start,
				End:         end,
			})
		}
	}

	report.HasIssues = len(report.Overlaps) > 0
	return report
}
