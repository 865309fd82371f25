package server

import (
	"context"
	"errors"
	"time"

	"cloudconsole/internal/console"
	"cloudconsole/internal/model"
	"cloudconsole/internal/store"
)

const DefaultSimulateInterval = time.Second

// nextVMState moves vm one step toward the desired instance state.
func nextVMState(state, vm string) (string, bool) {
	switch state {
	case model.InstanceRunning:
		switch vm {
		case "":
			return model.VMProvisioningDisk, true
		case model.VMProvisioningDisk, model.VMStopped, model.VMFailed:
			return model.VMStarting, true
		case model.VMStarting, model.VMUpdating:
			return model.VMRunning, true
		}
	case model.InstanceStopped:
		if vm != model.VMStopped {
			return model.VMStopped, true
		}
	}
	return vm, false
}

// Simulate advances instance VM states until ctx is done.
func (s *Server) Simulate(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSimulateInterval
	}
	console.Every(ctx, interval, s.simulateStep)
}

func (s *Server) simulateStep(ctx context.Context) {
	docs, err := s.db.List(ctx, model.KindInstance)
	if err != nil {
		s.log.Warn("simulate: list", "error", err)
		return
	}
	var changed []string
	for _, d := range docs {
		// The listed doc only picks candidates; the step itself reads the
		// current row so a concurrent update is never reverted.
		_, ok, err := s.db.Mutate(ctx, model.KindInstance, d.ID(), func(cur model.Doc) (model.Doc, error) {
			next, ok := nextVMState(cur.String("state"), cur.String("vm_state"))
			if !ok {
				return cur, nil
			}
			return cur.With("vm_state", next), nil
		})
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.log.Warn("simulate: update", "id", d.ID(), "error", err)
			}
			continue
		}
		if ok {
			changed = append(changed, d.ID())
		}
	}
	if len(changed) > 0 {
		s.log.Debug("simulate", "changed", len(changed))
		s.hub.publish(model.ChangeEvent{Type: model.EventUpdated, Kind: model.KindInstance, IDs: changed})
	}
}
