package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/model"
	"cierrecaja/internal/repository"

	"gorm.io/gorm"
)

// PeriodoService suggests the next period of a scope so approved closures chain
// without gaps or overlaps.
type PeriodoService interface {
	Sugerir(ctx context.Context, alcance model.Alcance) (arqueo.Periodo, error)
	// UltimoAprobado is nil when the scope has never been approved.
	UltimoAprobado(ctx context.Context, alcance model.Alcance) (*model.CierreCaja, error)
}

type periodoService struct {
	repo  repository.CierreRepository
	zona  *time.Location
	reloj func() time.Time
}

// NewPeriodoService uses time.Now when reloj is nil.
func NewPeriodoService(repo repository.CierreRepository, zona *time.Location, reloj func() time.Time) PeriodoService {
	if zona == nil {
		zona = time.UTC
	}
	if reloj == nil {
		reloj = time.Now
	}
	return &periodoService{repo: repo, zona: zona, reloj: reloj}
}

func (s *periodoService) UltimoAprobado(ctx context.Context, alcance model.Alcance) (*model.CierreCaja, error) {
	c, err := s.repo.UltimoAprobado(ctx, alcance.Clave)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("último cierre aprobado: %w", err)
	}
	return c, nil
}

// ── Sugerir ───────────────────────────────────────────────────────────────────
// start = fecha_fin of the last approved closure of this exact scope, else 00:00:00
// today; end = 23:59:59 today. Pending closures never move the start.

func (s *periodoService) Sugerir(ctx context.Context, alcance model.Alcance) (arqueo.Periodo, error) {
	hoy := s.reloj().In(s.zona)
	inicio := inicioDelDia(hoy)
	fin := finDelDia(hoy)

	ultimo, err := s.UltimoAprobado(ctx, alcance)
	if err != nil {
		return arqueo.Periodo{}, err
	}
	if ultimo != nil {
		inicio = ultimo.FechaFin.In(s.zona)
	}
	if !inicio.Before(fin) {
		fin = finDelDia(inicio.AddDate(0, 0, 1))
	}
	return arqueo.Periodo{Inicio: inicio, Fin: fin}, nil
}

func inicioDelDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func finDelDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
