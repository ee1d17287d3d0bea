package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
)

// setFieldsIfOwned writes field/value pairs on an existing hash only.
// KEYS[1] = hash key, ARGV[1] = expected host_id ("" skips the check),
// ARGV[2..] = field, value, field, value...
// A plain HSET would resurrect a hash deleted by a concurrent reconcile.
var setFieldsIfOwned = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if ARGV[1] ~= '' and redis.call('HGET', KEYS[1], 'host_id') ~= ARGV[1] then return 0 end
for i = 2, #ARGV, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`)

// createCameraScript writes a camera and claims its name in one step.
// KEYS: host hash, host name->id hash, host camera set, camera hash.
// ARGV[1] = name, ARGV[2] = camera id, ARGV[3] = camera key prefix,
// ARGV[4..] = camera hash field, value pairs.
// A claim whose camera hash no longer exists is stale and is taken over.
var createCameraScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
local owner = redis.call('HGET', KEYS[2], ARGV[1])
if owner and redis.call('EXISTS', ARGV[3] .. owner) == 1 then return 0 end
if owner then redis.call('SREM', KEYS[3], owner) end
for i = 4, #ARGV, 2 do
	redis.call('HSET', KEYS[4], ARGV[i], ARGV[i + 1])
end
redis.call('SADD', KEYS[3], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
return 1
`)

const (
	createHostMissing = -1
	createNameTaken   = 0
)

// deleteCameraScript removes a camera owned by ARGV[2] (or already gone)
// and any name claim pointing at it.
// KEYS: camera hash, camera tag set, host camera set, host name->id hash.
// ARGV[1] = camera id, ARGV[2] = host id.
var deleteCameraScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], 'host_id')
if owner and owner ~= ARGV[2] then return 0 end
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('SREM', KEYS[3], ARGV[1])
local claims = redis.call('HGETALL', KEYS[4])
for i = 1, #claims, 2 do
	if claims[i + 1] == ARGV[1] then
		redis.call('HDEL', KEYS[4], claims[i])
	end
end
return 1
`)

// Store handles Redis operations for hosts and cameras
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

// ListHosts retrieves every registered host
func (s *Store) ListHosts(ctx context.Context) ([]domain.Host, error) {
	ids, err := s.client.SMembers(ctx, AllHostsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get host IDs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Host{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, HostKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get hosts: %w", err)
	}

	hosts := make([]domain.Host, 0, len(ids))
	for _, cmd := range cmds {
		h, err := hashToHost(cmd.Val())
		if err != nil {
			// Skip hosts that were removed between SMEMBERS and HGETALL
			continue
		}
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })
	return hosts, nil
}

// ListEnabledHosts retrieves hosts with the enabled flag set
func (s *Store) ListEnabledHosts(ctx context.Context) ([]domain.Host, error) {
	all, err := s.ListHosts(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, h := range all {
		if h.Enabled {
			enabled = append(enabled, h)
		}
	}
	return enabled, nil
}

// GetHostWithCameras retrieves a host and all cameras it owns
func (s *Store) GetHostWithCameras(ctx context.Context, hostID string) (*domain.HostWithCameras, error) {
	raw, err := s.client.HGetAll(ctx, HostKey(hostID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("host %s: %w", hostID, store.ErrNotFound)
	}
	host, err := hashToHost(raw)
	if err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, HostCamerasKey(hostID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get camera IDs: %w", err)
	}

	out := &domain.HostWithCameras{Host: host, Cameras: make([]domain.Camera, 0, len(ids))}
	if len(ids) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	camCmds := make([]*redis.MapStringStringCmd, len(ids))
	tagCmds := make([]*redis.StringSliceCmd, len(ids))
	for i, id := range ids {
		camCmds[i] = pipe.HGetAll(ctx, CameraKey(id))
		tagCmds[i] = pipe.SMembers(ctx, CameraTagsKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get cameras: %w", err)
	}

	for i := range ids {
		cam, err := hashToCamera(camCmds[i].Val())
		if err != nil {
			continue
		}
		if tags := tagCmds[i].Val(); len(tags) > 0 {
			sort.Strings(tags)
			cam.Tags = tags
		}
		out.Cameras = append(out.Cameras, cam)
	}
	sort.Slice(out.Cameras, func(i, j int) bool { return out.Cameras[i].Name < out.Cameras[j].Name })
	return out, nil
}

// CreateCamera stores a new camera with unknown state
func (s *Store) CreateCamera(ctx context.Context, hostID, name string, config json.RawMessage) (*domain.Camera, error) {
	now := s.now()
	cam := domain.Camera{
		ID:        uuid.NewString(),
		HostID:    hostID,
		Name:      name,
		Config:    config,
		State:     domain.Unknown,
		CreatedAt: now,
		UpdatedAt: now,
	}

	fields := cameraToHash(cam)
	args := make([]interface{}, 0, 3+2*len(fields))
	args = append(args, name, cam.ID, KeyPrefixCamera)
	for f, v := range fields {
		args = append(args, f, v)
	}

	keys := []string{HostKey(hostID), HostCameraNamesKey(hostID), HostCamerasKey(hostID), CameraKey(cam.ID)}
	n, err := createCameraScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to save camera: %w", err)
	}
	switch n {
	case createHostMissing:
		return nil, fmt.Errorf("host %s: %w", hostID, store.ErrNotFound)
	case createNameTaken:
		return nil, fmt.Errorf("camera %q on host %s: %w", name, hostID, store.ErrDuplicateKey)
	}
	return &cam, nil
}

// UpdateCameraConfig overwrites only the config field of a camera
func (s *Store) UpdateCameraConfig(ctx context.Context, hostID, cameraID string, config json.RawMessage) error {
	return s.setFields(ctx, CameraKey(cameraID), hostID, fieldConfig, string(config))
}

// UpdateCameraState overwrites only the state field of a camera
func (s *Store) UpdateCameraState(ctx context.Context, hostID, cameraID string, state domain.Tristate) error {
	return s.setFields(ctx, CameraKey(cameraID), hostID, fieldState, state.String())
}

// UpdateHostAvailability overwrites only the available field of a host
func (s *Store) UpdateHostAvailability(ctx context.Context, hostID string, state domain.Tristate) error {
	return s.setFields(ctx, HostKey(hostID), "", fieldAvailable, state.String())
}

func (s *Store) setFields(ctx context.Context, key, ownerID string, fieldValues ...string) error {
	args := make([]interface{}, 0, len(fieldValues)+3)
	args = append(args, ownerID)
	for _, fv := range fieldValues {
		args = append(args, fv)
	}
	args = append(args, fieldUpdatedAt, formatTime(s.now()))

	n, err := setFieldsIfOwned.Run(ctx, s.client, []string{key}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	return nil
}

// DeleteCameras removes cameras, their tags and their name claims.
// Cameras owned by another host are left alone.
func (s *Store) DeleteCameras(ctx context.Context, hostID string, cameraIDs []string) error {
	for _, id := range cameraIDs {
		keys := []string{CameraKey(id), CameraTagsKey(id), HostCamerasKey(hostID), HostCameraNamesKey(hostID)}
		if err := deleteCameraScript.Run(ctx, s.client, keys, id, hostID).Err(); err != nil {
			return fmt.Errorf("failed to delete camera %s: %w", id, err)
		}
	}
	return nil
}

// UpsertHost registers a host by URL or refreshes its administrative fields
func (s *Store) UpsertHost(ctx context.Context, host domain.Host) (*domain.Host, error) {
	now := s.now()

	id, err := s.client.HGet(ctx, KeyHostsByURL, host.URL).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to look up host url: %w", err)
	}

	if id == "" {
		id = host.ID
		if id == "" {
			id = uuid.NewString()
		}
		claimed, err := s.client.HSetNX(ctx, KeyHostsByURL, host.URL, id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim host url: %w", err)
		}
		if claimed {
			return s.saveNewHost(ctx, id, host, now)
		}
		// Lost the race; fall through to update the winner
		if id, err = s.client.HGet(ctx, KeyHostsByURL, host.URL).Result(); err != nil {
			return nil, fmt.Errorf("failed to look up host url: %w", err)
		}
	}

	err = s.setFields(ctx, HostKey(id), "",
		fieldName, host.Name,
		fieldURL, host.URL,
		fieldEnabled, strconv.FormatBool(host.Enabled),
	)
	if errors.Is(err, store.ErrNotFound) {
		// URL claimed by an interrupted registration; finish it
		return s.saveNewHost(ctx, id, host, now)
	}
	if err != nil {
		return nil, err
	}

	raw, err := s.client.HGetAll(ctx, HostKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	h, err := hashToHost(raw)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) saveNewHost(ctx context.Context, id string, host domain.Host, now time.Time) (*domain.Host, error) {
	h := host
	h.ID = id
	h.CreatedAt = now
	h.UpdatedAt = now
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HostKey(id), hostToHash(h))
		pipe.SAdd(ctx, AllHostsKey(), id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save host: %w", err)
	}
	return &h, nil
}

// TagCamera attaches a tag to a camera owned by hostID
func (s *Store) TagCamera(ctx context.Context, hostID, cameraID, tag string) error {
	owner, err := s.client.HGet(ctx, CameraKey(cameraID), fieldHostID).Result()
	if errors.Is(err, redis.Nil) || (err == nil && owner != hostID) {
		return fmt.Errorf("camera %s: %w", cameraID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read camera: %w", err)
	}
	if err := s.client.SAdd(ctx, CameraTagsKey(cameraID), tag).Err(); err != nil {
		return fmt.Errorf("failed to tag camera: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Repository = (*Store)(nil)
