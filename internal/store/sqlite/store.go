package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// Store implements store.Repository for SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database file and runs migrations.
func New(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS hosts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	url         TEXT NOT NULL UNIQUE,
	enabled     INTEGER NOT NULL,
	available   TEXT NOT NULL DEFAULT 'unknown',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cameras (
	id          TEXT PRIMARY KEY,
	host_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	config      TEXT NOT NULL,
	state       TEXT NOT NULL DEFAULT 'unknown',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	UNIQUE (host_id, name),
	FOREIGN KEY(host_id) REFERENCES hosts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_cameras_host_id ON cameras (host_id);

CREATE TABLE IF NOT EXISTS camera_tags (
	camera_id   TEXT NOT NULL,
	tag         TEXT NOT NULL,
	PRIMARY KEY (camera_id, tag),
	FOREIGN KEY(camera_id) REFERENCES cameras(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

const hostColumns = `id, name, url, enabled, available, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHost(row scanner) (domain.Host, error) {
	var (
		h                    domain.Host
		enabled              int
		available            string
		createdAt, updatedAt string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.URL, &enabled, &available, &createdAt, &updatedAt); err != nil {
		return domain.Host{}, err
	}
	state, err := domain.ParseTristate(available)
	if err != nil {
		return domain.Host{}, err
	}
	h.Enabled = enabled != 0
	h.Available = state
	h.CreatedAt = parseTime(createdAt)
	h.UpdatedAt = parseTime(updatedAt)
	return h, nil
}

// ListHosts retrieves every host ordered by name.
func (s *Store) ListHosts(ctx context.Context) ([]domain.Host, error) {
	return s.queryHosts(ctx, `SELECT `+hostColumns+` FROM hosts ORDER BY name, id`)
}

// ListEnabledHosts retrieves enabled hosts ordered by name.
func (s *Store) ListEnabledHosts(ctx context.Context) ([]domain.Host, error) {
	return s.queryHosts(ctx, `SELECT `+hostColumns+` FROM hosts WHERE enabled = 1 ORDER BY name, id`)
}

func (s *Store) queryHosts(ctx context.Context, query string, args ...any) ([]domain.Host, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	hosts := []domain.Host{}
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// GetHostWithCameras retrieves a host and its cameras including tags.
func (s *Store) GetHostWithCameras(ctx context.Context, hostID string) (*domain.HostWithCameras, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hostColumns+` FROM hosts WHERE id = ?`, hostID)
	h, err := scanHost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("host %s: %w", hostID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, config, state, created_at, updated_at
FROM cameras
WHERE host_id = ?
ORDER BY name`, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	defer rows.Close()

	out := &domain.HostWithCameras{Host: h, Cameras: []domain.Camera{}}
	index := make(map[string]int)
	for rows.Next() {
		var (
			c                    domain.Camera
			config, state        string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &config, &state, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		if c.State, err = domain.ParseTristate(state); err != nil {
			return nil, fmt.Errorf("camera %s: %w", c.ID, err)
		}
		c.HostID = hostID
		c.Config = json.RawMessage(config)
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		index[c.ID] = len(out.Cameras)
		out.Cameras = append(out.Cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	if len(out.Cameras) == 0 {
		return out, nil
	}

	if err := s.loadTags(ctx, hostID, out.Cameras, index); err != nil {
		return nil, err
	}
	return out, nil
}

// loadTags fills the Tags of cameras, indexed by camera ID.
func (s *Store) loadTags(ctx context.Context, hostID string, cameras []domain.Camera, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
SELECT t.camera_id, t.tag
FROM camera_tags t
JOIN cameras c ON c.id = t.camera_id
WHERE c.host_id = ?
ORDER BY t.tag`, hostID)
	if err != nil {
		return fmt.Errorf("failed to list camera tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cameraID, tag string
		if err := rows.Scan(&cameraID, &tag); err != nil {
			return fmt.Errorf("failed to scan camera tag: %w", err)
		}
		if i, ok := index[cameraID]; ok {
			cameras[i].Tags = append(cameras[i].Tags, tag)
		}
	}
	return rows.Err()
}

// CreateCamera inserts a camera with unknown state.
func (s *Store) CreateCamera(ctx context.Context, hostID, name string, config json.RawMessage) (*domain.Camera, error) {
	now := s.now()
	c := domain.Camera{
		ID:        uuid.NewString(),
		HostID:    hostID,
		Name:      name,
		Config:    config,
		State:     domain.Unknown,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO cameras (id, host_id, name, config, state, created_at, updated_at)
SELECT ?, id, ?, ?, ?, ?, ? FROM hosts WHERE id = ?
ON CONFLICT(host_id, name) DO NOTHING`,
		c.ID, c.Name, string(config), c.State.String(), formatTime(now), formatTime(now), hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert camera: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, s.createConflict(ctx, hostID, name)
	}
	return &c, nil
}

// createConflict tells a missing host apart from a taken name.
func (s *Store) createConflict(ctx context.Context, hostID, name string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM hosts WHERE id = ?`, hostID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("host %s: %w", hostID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check host: %w", err)
	}
	return fmt.Errorf("camera %q on host %s: %w", name, hostID, store.ErrDuplicateKey)
}

// UpdateCameraConfig overwrites only the config column.
func (s *Store) UpdateCameraConfig(ctx context.Context, hostID, cameraID string, config json.RawMessage) error {
	return s.execOne(ctx, `UPDATE cameras SET config = ?, updated_at = ? WHERE id = ? AND host_id = ?`,
		string(config), formatTime(s.now()), cameraID, hostID)
}

// UpdateCameraState overwrites only the state column.
func (s *Store) UpdateCameraState(ctx context.Context, hostID, cameraID string, state domain.Tristate) error {
	return s.execOne(ctx, `UPDATE cameras SET state = ?, updated_at = ? WHERE id = ? AND host_id = ?`,
		state.String(), formatTime(s.now()), cameraID, hostID)
}

// UpdateHostAvailability overwrites only the available column.
func (s *Store) UpdateHostAvailability(ctx context.Context, hostID string, state domain.Tristate) error {
	return s.execOne(ctx, `UPDATE hosts SET available = ?, updated_at = ? WHERE id = ?`,
		state.String(), formatTime(s.now()), hostID)
}

func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteCameras removes cameras; camera_tags rows go with them via ON DELETE CASCADE.
func (s *Store) DeleteCameras(ctx context.Context, hostID string, cameraIDs []string) error {
	if len(cameraIDs) == 0 {
		return nil
	}
	args := make([]any, 0, len(cameraIDs)+1)
	args = append(args, hostID)
	for _, id := range cameraIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cameraIDs)), ",")
	query := `DELETE FROM cameras WHERE host_id = ? AND id IN (` + placeholders + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete cameras: %w", err)
	}
	return nil
}

// UpsertHost inserts a host or refreshes name/enabled for an existing URL.
func (s *Store) UpsertHost(ctx context.Context, host domain.Host) (*domain.Host, error) {
	id := host.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := formatTime(s.now())

	_, err := s.db.ExecContext(ctx, `
INSERT INTO hosts (id, name, url, enabled, available, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET name = excluded.name, enabled = excluded.enabled, updated_at = excluded.updated_at`,
		id, host.Name, host.URL, boolToInt(host.Enabled), host.Available.String(), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert host: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+hostColumns+` FROM hosts WHERE url = ?`, host.URL)
	h, err := scanHost(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read host back: %w", err)
	}
	return &h, nil
}

// TagCamera attaches a tag to a camera owned by hostID.
func (s *Store) TagCamera(ctx context.Context, hostID, cameraID, tag string) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO camera_tags (camera_id, tag)
SELECT id, ? FROM cameras WHERE id = ? AND host_id = ?
ON CONFLICT(camera_id, tag) DO NOTHING`, tag, cameraID, hostID)
	if err != nil {
		return fmt.Errorf("failed to tag camera: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM cameras WHERE id = ? AND host_id = ?`, cameraID, hostID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("camera %s: %w", cameraID, store.ErrNotFound)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ store.Repository = (*Store)(nil)
