package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"apms/internal/core"
	"apms/internal/types"
)

const mirrorConfigOp = "mirror configuration changes"

// Mirrors returns the effective mirror list and the order installs try it
// in.
func (s Service) Mirrors(ctx context.Context) (MirrorsResult, error) {
	list, err := s.MirrorConfig.Load(ctx)
	if err != nil {
		return MirrorsResult{}, err
	}
	return MirrorsResult{
		Source:  list.Source,
		Path:    list.Path,
		All:     list.Mirrors,
		Ordered: core.OrderMirrors(list),
	}, nil
}

func (s Service) AddMirror(ctx context.Context, req MirrorAddRequest) (MirrorsResult, error) {
	mirror := types.Mirror{
		Name:     strings.TrimSpace(req.Name),
		URL:      strings.TrimSpace(req.URL),
		Priority: req.Priority,
		Enabled:  req.Enabled,
	}
	if err := core.ValidateMirror(mirror); err != nil {
		return MirrorsResult{}, err
	}
	return s.updateSystemMirrors(ctx, func(list types.MirrorList) (types.MirrorList, error) {
		return core.AddMirror(list, mirror)
	})
}

func (s Service) RemoveMirror(ctx context.Context, req MirrorRemoveRequest) (MirrorsResult, error) {
	return s.updateSystemMirrors(ctx, func(list types.MirrorList) (types.MirrorList, error) {
		return core.RemoveMirror(list, strings.TrimSpace(req.Name))
	})
}

func (s Service) SetMirrorEnabled(ctx context.Context, req MirrorToggleRequest) (MirrorsResult, error) {
	return s.updateSystemMirrors(ctx, func(list types.MirrorList) (types.MirrorList, error) {
		return core.SetMirrorEnabled(list, strings.TrimSpace(req.Name), req.Enabled)
	})
}

// updateSystemMirrors applies mutate to the system mirror list and
// persists the result.
func (s Service) updateSystemMirrors(ctx context.Context, mutate func(types.MirrorList) (types.MirrorList, error)) (MirrorsResult, error) {
	if err := s.Privilege.RequireElevated(mirrorConfigOp); err != nil {
		return MirrorsResult{}, err
	}
	list, err := s.MirrorConfig.LoadSystem(ctx)
	if err != nil {
		return MirrorsResult{}, err
	}
	updated, err := mutate(list)
	if err != nil {
		return MirrorsResult{}, err
	}
	if err := s.MirrorConfig.Persist(ctx, updated); err != nil {
		return MirrorsResult{}, err
	}
	updated.Source = types.MirrorScopeSystem
	log.Ctx(ctx).Info().Msgf("Saved %d mirrors", len(updated.Mirrors))
	return MirrorsResult{
		Source:  updated.Source,
		Path:    updated.Path,
		All:     updated.Mirrors,
		Ordered: core.OrderMirrors(updated),
	}, nil
}
