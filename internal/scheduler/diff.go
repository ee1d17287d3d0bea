package scheduler

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

// NewCamera is a camera reported by the host but unknown locally.
type NewCamera struct {
	Name   string
	Config json.RawMessage
}

// ConfigChange replaces the config of an existing camera.
type ConfigChange struct {
	Camera domain.Camera
	Config json.RawMessage
}

// Plan lists the writes needed to converge one host's cameras. Create
// and Delete are always computed from the same remote snapshot.
type Plan struct {
	Create []NewCamera
	Update []ConfigChange
	Delete []domain.Camera
}

// Empty reports whether the plan has nothing to apply.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// DeleteIDs returns the IDs of the cameras to delete.
func (p Plan) DeleteIDs() []string {
	ids := make([]string, len(p.Delete))
	for i, c := range p.Delete {
		ids[i] = c.ID
	}
	return ids
}

// Diff correlates local and remote cameras by name. Cameras present on
// both sides are updated only when their config differs, so a converged
// host yields an empty plan. Every list is sorted by name.
func Diff(local []domain.Camera, remote map[string]json.RawMessage) Plan {
	var plan Plan

	seen := make(map[string]bool, len(local))
	for _, cam := range local {
		if seen[cam.Name] {
			// Name uniqueness is enforced by the store; a stray duplicate
			// is removed so the host converges to one record per name.
			plan.Delete = append(plan.Delete, cam)
			continue
		}
		seen[cam.Name] = true

		cfg, ok := remote[cam.Name]
		switch {
		case !ok:
			plan.Delete = append(plan.Delete, cam)
		case !bytes.Equal(cam.Config, cfg):
			plan.Update = append(plan.Update, ConfigChange{Camera: cam, Config: cfg})
		}
	}

	for name, cfg := range remote {
		if !seen[name] {
			plan.Create = append(plan.Create, NewCamera{Name: name, Config: cfg})
		}
	}

	sort.Slice(plan.Create, func(i, j int) bool { return plan.Create[i].Name < plan.Create[j].Name })
	sort.Slice(plan.Update, func(i, j int) bool { return plan.Update[i].Camera.Name < plan.Update[j].Camera.Name })
	sort.Slice(plan.Delete, func(i, j int) bool { return plan.Delete[i].Name < plan.Delete[j].Name })
	return plan
}
