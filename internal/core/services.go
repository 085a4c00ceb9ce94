package core

import (
	"github.com/rs/zerolog"

	"github.com/edvin/labdeploy/internal/eventbus"
)

type Services struct {
	Store      *DeploymentStore
	Deployment *DeploymentService
}

func NewServices(db DB, publisher eventbus.Publisher, cfg DeploymentServiceConfig, logger zerolog.Logger) *Services {
	store := NewDeploymentStore(db)
	return &Services{
		Store:      store,
		Deployment: NewDeploymentService(store, publisher, cfg, logger),
	}
}
