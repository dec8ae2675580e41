package app

import (
	"github.com/finote/finote/internal/config"
	"github.com/finote/finote/internal/event_bus"
	"github.com/finote/finote/internal/utils"
	"github.com/finote/finote/pkg/session"
	"github.com/finote/finote/pkg/vault"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *event_bus.EventBus
	Vault vault.Vault
	Clock utils.Clock

	SessionManager *session.Manager
	SessionHandler *session.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	deps.Clock = utils.SystemClock{}

	fileVault, err := vault.NewFileVault(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	deps.Vault = fileVault

	deps.SessionManager = session.NewManager(deps.Vault, deps.Clock, deps.Bus)
	deps.SessionHandler = session.NewHandler(deps.SessionManager)

	// Persistence health is worth shouting about in the server log even
	// though the mutation itself degrades silently for the user.
	deps.Bus.Subscribe(event_bus.SessionSaveFailed, func(e event_bus.Event) error {
		if status, ok := e.Data.(event_bus.SaveStatus); ok {
			log.Warnf("durable storage behind memory for user %s: %v", status.UserID, status.Err)
		}
		return nil
	})
	deps.Bus.Subscribe(event_bus.SessionSaveRecovered, func(e event_bus.Event) error {
		if status, ok := e.Data.(event_bus.SaveStatus); ok {
			log.Infof("durable storage caught up for user %s", status.UserID)
		}
		return nil
	})

	return deps, nil
}
