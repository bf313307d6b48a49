package services

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SettingsService manages the deployment-wide settings record. Every public
// operation is restricted to administrators.
type SettingsService struct {
	store  storage.SettingsStore
	seed   *core.Settings
	now    func() time.Time
	logger *log.Logger
}

func NewSettingsService(store storage.SettingsStore, seed *core.Settings, now func() time.Time, logger *log.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		seed:   seed,
		now:    now,
		logger: logger.WithComponent(log.ComponentSettings),
	}
}

// Get returns the stored settings, creating them from the seed or the
// built-in defaults on first access.
func (s *SettingsService) Get(ctx context.Context, actor core.Actor) (core.Settings, error) {
	if err := actor.RequireAdmin(); err != nil {
		return core.Settings{}, err
	}
	return s.current(ctx)
}

func (s *SettingsService) Create(ctx context.Context, actor core.Actor, in core.Settings) (core.Settings, error) {
	if err := actor.RequireAdmin(); err != nil {
		return core.Settings{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Settings{}, err
	}
	in.UpdatedAt = s.now()
	if err := s.store.CreateSettings(ctx, in); err != nil {
		return core.Settings{}, storeErr("create settings", err)
	}
	s.logger.InfoContext(ctx, "Settings created", log.FieldActorID, actor.UserID)
	return in, nil
}

// Update replaces the settings, creating them if absent.
func (s *SettingsService) Update(ctx context.Context, actor core.Actor, in core.Settings) (core.Settings, error) {
	if err := actor.RequireAdmin(); err != nil {
		return core.Settings{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Settings{}, err
	}
	in.UpdatedAt = s.now()
	if err := s.store.SaveSettings(ctx, in); err != nil {
		return core.Settings{}, storeErr("save settings", err)
	}
	s.logger.InfoContext(ctx, "Settings updated", log.FieldActorID, actor.UserID)
	return in, nil
}

// current is the unchecked read used by other services to enforce limits.
func (s *SettingsService) current(ctx context.Context) (core.Settings, error) {
	st, err := s.store.GetSettings(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, core.ErrSettingsNotFound) {
		return core.Settings{}, storeErr("get settings", err)
	}

	st = s.defaults()
	st.UpdatedAt = s.now()
	switch err := s.store.CreateSettings(ctx, st); {
	case err == nil:
		s.logger.InfoContext(ctx, "Default settings created")
		return st, nil
	case errors.Is(err, core.ErrSettingsExist):
		// Lost a race with another writer; read theirs.
		st, err = s.store.GetSettings(ctx)
		if err != nil {
			return core.Settings{}, storeErr("get settings", err)
		}
		return st, nil
	default:
		return core.Settings{}, storeErr("create settings", err)
	}
}

func (s *SettingsService) defaults() core.Settings {
	if s.seed != nil {
		st := *s.seed
		st.Categories = append([]string(nil), s.seed.Categories...)
		return st
	}
	return core.DefaultSettings()
}
