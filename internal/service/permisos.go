package service

import (
	"cierrecaja/internal/model"

	"github.com/google/uuid"
)

// Rol: "cajero" | "supervisor" | "administrador"
type Rol string

const (
	RolCajero        Rol = "cajero"
	RolSupervisor    Rol = "supervisor"
	RolAdministrador Rol = "administrador"
)

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	ID     uuid.UUID
	Nombre string
	Rol    Rol
}

// Autorizador decides who may read, submit and review closures.
type Autorizador interface {
	PuedeConsultar(alcance model.Alcance, actor Actor) bool
	PuedeRegistrar(alcance model.Alcance, actor Actor) bool
	PuedeRevisar(actor Actor) bool
}

// AutorizadorPorRol is the default policy:
//   - cajero: reads and submits only their own cashier scope
//   - supervisor, administrador: read and submit any scope, and review
type AutorizadorPorRol struct{}

func (a AutorizadorPorRol) PuedeConsultar(alcance model.Alcance, actor Actor) bool {
	return a.PuedeRegistrar(alcance, actor)
}

func (AutorizadorPorRol) PuedeRegistrar(alcance model.Alcance, actor Actor) bool {
	switch actor.Rol {
	case RolSupervisor, RolAdministrador:
		return true
	case RolCajero:
		return !alcance.EsTienda() && alcance.CajeroID != nil && *alcance.CajeroID == actor.ID
	default:
		return false
	}
}

func (AutorizadorPorRol) PuedeRevisar(actor Actor) bool {
	return actor.Rol == RolSupervisor || actor.Rol == RolAdministrador
}
