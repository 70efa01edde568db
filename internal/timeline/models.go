// Package timeline holds the storyboard domain model and the pure layout
// math: time-to-pixel projection, duration aggregation and clip overlap
// detection. Nothing in this package touches the network or mutates shared
// state; the backend remains authoritative for every value carried here.
package timeline

// Scene is one narrative unit of a storyboard. A scene may be an alternate
// take of another scene, linked through ParentSceneID.
type Scene struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id,omitempty"`
	Name            string  `json:"name"`
	Duration        float64 `json:"duration"`
	TimelineStart   float64 `json:"timeline_start"`
	ParentSceneID   string  `json:"parent_scene_id,omitempty"`
	IsAlternate     bool    `json:"is_alternate"`
	AlternateNumber int     `json:"alternate_number,omitempty"`
	Clips           []*Clip `json:"clips,omitempty"`
}

// Clip is a shot inside a scene, placed on the scene-relative time axis.
type Clip struct {
	ID               string     `json:"id"`
	SceneID          string     `json:"scene_id"`
	Name             string     `json:"name"`
	Lyrics           string     `json:"lyrics,omitempty"`
	Length           float64    `json:"length"`
	TimelinePosition float64    `json:"timeline_position"`
	ParentClipID     string     `json:"parent_clip_id,omitempty"`
	IsAlternate      bool       `json:"is_alternate"`
	AlternateNumber  int        `json:"alternate_number,omitempty"`
	GeneratedImages  []Artifact `json:"generated_images,omitempty"`
	GeneratedVideos  []Artifact `json:"generated_videos,omitempty"`
}

// Artifact is a generated image or video attached to a clip. Order is
// significant; Selected marks the one the storyboard renders.
type Artifact struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Selected  bool   `json:"selected"`
	CreatedAt string `json:"created_at,omitempty"`
}

// End returns the clip's end on the scene time axis.
func (c *Clip) End() float64 {
	return c.TimelinePosition + c.Length
}

// FamilyKey identifies the alternate family this scene belongs to.
func (s *Scene) FamilyKey() string {
	if s.ParentSceneID != "" {
		return s.ParentSceneID
	}
	return s.ID
}

// Alternate reports whether this scene is an alternate take.
func (s *Scene) Alternate() bool {
	return s.IsAlternate
}

// FamilyKey identifies the alternate family this clip belongs to.
func (c *Clip) FamilyKey() string {
	if c.ParentClipID != "" {
		return c.ParentClipID
	}
	return c.ID
}

// Alternate reports whether this clip is an alternate take.
func (c *Clip) Alternate() bool {
	return c.IsAlternate
}

// FindClip returns the clip with the given id, or nil.
func (s *Scene) FindClip(id string) *Clip {
	for _, c := range s.Clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}
