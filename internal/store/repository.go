// Package store is the local projection cache. It mirrors whatever the
// backend last returned so the agent can render a timeline and a queue
// immediately after restart, before the first fetch completes. Every write
// is a whole-collection replace; the cache never merges.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/timeline"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceScenes swaps the cached scene set for a project with the given
// snapshot. Clips are not touched; they are cached per scene.
func (r *Repository) ReplaceScenes(ctx context.Context, projectID string, scenes []*timeline.Scene) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scenes WHERE project_id = ?", projectID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range scenes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenes (id, project_id, name, duration, timeline_start, parent_scene_id, is_alternate, alternate_number, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ID, projectID, s.Name, s.Duration, s.TimelineStart, nullString(s.ParentSceneID), boolToInt(s.IsAlternate), nullInt(s.AlternateNumber), now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceClips swaps the cached clip set for a scene with the given snapshot.
func (r *Repository) ReplaceClips(ctx context.Context, sceneID string, clips []*timeline.Clip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clips WHERE scene_id = ?", sceneID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range clips {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clips (id, scene_id, name, lyrics, length, timeline_position, parent_clip_id, is_alternate, alternate_number, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, sceneID, c.Name, nullString(c.Lyrics), c.Length, c.TimelinePosition, nullString(c.ParentClipID), boolToInt(c.IsAlternate), nullInt(c.AlternateNumber), now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) ListScenes(ctx context.Context, projectID string) ([]*timeline.Scene, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, name, duration, timeline_start, parent_scene_id, is_alternate, alternate_number
		FROM scenes WHERE project_id = ? ORDER BY timeline_start, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []*timeline.Scene
	for rows.Next() {
		var s timeline.Scene
		var isAlternate int
		var parentSceneID sql.NullString
		var alternateNumber sql.NullInt64

		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Duration, &s.TimelineStart, &parentSceneID, &isAlternate, &alternateNumber); err != nil {
			return nil, err
		}
		s.ParentSceneID = parentSceneID.String
		s.IsAlternate = isAlternate == 1
		s.AlternateNumber = int(alternateNumber.Int64)
		scenes = append(scenes, &s)
	}
	return scenes, rows.Err()
}

func (r *Repository) ListClips(ctx context.Context, sceneID string) ([]*timeline.Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scene_id, name, lyrics, length, timeline_position, parent_clip_id, is_alternate, alternate_number
		FROM clips WHERE scene_id = ? ORDER BY timeline_position, id
	`, sceneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []*timeline.Clip
	for rows.Next() {
		var c timeline.Clip
		var isAlternate int
		var lyrics sql.NullString
		var parentClipID sql.NullString
		var alternateNumber sql.NullInt64

		if err := rows.Scan(&c.ID, &c.SceneID, &c.Name, &lyrics, &c.Length, &c.TimelinePosition, &parentClipID, &isAlternate, &alternateNumber); err != nil {
			return nil, err
		}
		c.Lyrics = lyrics.String
		c.ParentClipID = parentClipID.String
		c.IsAlternate = isAlternate == 1
		c.AlternateNumber = int(alternateNumber.Int64)
		clips = append(clips, &c)
	}
	return clips, rows.Err()
}

// SaveJobs replaces the cached queue snapshot. ClipIDs and Params are
// stored as JSON text; sqlite has no native array or map column.
func (r *Repository) SaveJobs(ctx context.Context, jobs []*backend.Job) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM jobs"); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, j := range jobs {
		clipIDs, err := json.Marshal(j.ClipIDs)
		if err != nil {
			return err
		}
		params, err := json.Marshal(j.Params)
		if err != nil {
			return err
		}

		var completedAt sql.NullString
		if j.CompletedAt != nil {
			completedAt = sql.NullString{String: j.CompletedAt.Format(time.RFC3339), Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO jobs (id, generation_type, status, clip_ids, params, error, created_at, completed_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, j.ID, j.GenerationType, j.Status, string(clipIDs), string(params), nullString(j.Error), j.CreatedAt.Format(time.RFC3339), completedAt, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) LoadJobs(ctx context.Context) ([]*backend.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, generation_type, status, clip_ids, params, error, created_at, completed_at
		FROM jobs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*backend.Job
	for rows.Next() {
		var j backend.Job
		var clipIDs sql.NullString
		var params sql.NullString
		var errMsg sql.NullString
		var createdAt string
		var completedAt sql.NullString

		if err := rows.Scan(&j.ID, &j.GenerationType, &j.Status, &clipIDs, &params, &errMsg, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		if clipIDs.Valid && clipIDs.String != "" {
			if err := json.Unmarshal([]byte(clipIDs.String), &j.ClipIDs); err != nil {
				return nil, err
			}
		}
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &j.Params); err != nil {
				return nil, err
			}
		}
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err == nil {
				j.CompletedAt = &t
			}
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *Repository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *Repository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
