package repository

import (
	"context"
	"fmt"
	"time"

	"cierrecaja/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecuenciaCierres names the counter behind NumeroCierre.
const SecuenciaCierres = "cierres_caja"

// CierreFilter is the list query. Zero values mean "no filter".
type CierreFilter struct {
	Estado        string
	Desde         *time.Time // fecha_inicio >= Desde
	Hasta         *time.Time // fecha_fin <= Hasta
	AlcanceClave  string
	Significativa *bool
	Page          int
	PageSize      int
}

// Revision holds the only fields a review transition may write.
type Revision struct {
	Estado           string
	SupervisorNombre string
	ValidadoAt       time.Time
	MotivoRechazo    *string
}

type CierreRepository interface {
	// Create assigns the next closure number and inserts the record with its
	// lines in one transaction. A second pending closure for the same scope
	// fails with gorm.ErrDuplicatedKey.
	Create(ctx context.Context, c *model.CierreCaja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
	FindPendiente(ctx context.Context, alcanceClave string) (*model.CierreCaja, error)
	// UltimoAprobado is the approved closure with the latest fecha_fin for the scope.
	UltimoAprobado(ctx context.Context, alcanceClave string) (*model.CierreCaja, error)
	List(ctx context.Context, f CierreFilter) ([]model.CierreCaja, int64, error)
	// Revisar applies rev only while the closure is still pending and reports
	// whether a row was updated.
	Revisar(ctx context.Context, id uuid.UUID, rev Revision) (bool, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) Create(ctx context.Context, c *model.CierreCaja) error {
	c.FechaInicio = c.FechaInicio.UTC()
	c.FechaFin = c.FechaFin.UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numero, err := nextNumero(tx, SecuenciaCierres)
		if err != nil {
			return err
		}
		c.NumeroCierre = numero
		return tx.Create(c).Error
	})
	if isDuplicateKey(err) {
		return fmt.Errorf("cierre %s: %w", c.Alcance.Clave, gorm.ErrDuplicatedKey)
	}
	return err
}

// nextNumero advances a counter. The UPDATE holds the row lock until the
// surrounding transaction ends, which serializes concurrent submissions.
func nextNumero(tx *gorm.DB, nombre string) (int64, error) {
	var valor []int64
	err := tx.Raw("UPDATE secuencias SET valor = valor + 1 WHERE nombre = ? RETURNING valor", nombre).
		Scan(&valor).Error
	if err != nil {
		return 0, err
	}
	if len(valor) != 1 {
		return 0, fmt.Errorf("secuencia %q no inicializada", nombre)
	}
	return valor[0], nil
}

func (r *cierreRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Preload("Pagos", func(db *gorm.DB) *gorm.DB { return db.Order("metodo_pago_id ASC") }).
		Preload("Denominaciones", func(db *gorm.DB) *gorm.DB { return db.Order("valor DESC, tipo ASC") }).
		Where("id = ?", id).
		First(&c).Error
	return &c, err
}

func (r *cierreRepo) FindPendiente(ctx context.Context, alcanceClave string) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("alcance_clave = ? AND estado = ?", alcanceClave, model.EstadoPendiente).
		First(&c).Error
	return &c, err
}

func (r *cierreRepo) UltimoAprobado(ctx context.Context, alcanceClave string) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("alcance_clave = ? AND estado = ?", alcanceClave, model.EstadoAprobado).
		Order("fecha_fin DESC").
		First(&c).Error
	return &c, err
}

func (r *cierreRepo) List(ctx context.Context, f CierreFilter) ([]model.CierreCaja, int64, error) {
	var cierres []model.CierreCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CierreCaja{})
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.Desde != nil {
		q = q.Where("fecha_inicio >= ?", f.Desde.UTC())
	}
	if f.Hasta != nil {
		q = q.Where("fecha_fin <= ?", f.Hasta.UTC())
	}
	if f.AlcanceClave != "" {
		q = q.Where("alcance_clave = ?", f.AlcanceClave)
	}
	if f.Significativa != nil {
		q = q.Where("diferencia_significativa = ?", *f.Significativa)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.PageSize
	err := q.Order("numero_cierre DESC").
		Offset(offset).Limit(f.PageSize).
		Find(&cierres).Error

	return cierres, total, err
}

func (r *cierreRepo) Revisar(ctx context.Context, id uuid.UUID, rev Revision) (bool, error) {
	updates := map[string]interface{}{
		"estado":                 rev.Estado,
		"supervisor_nombre":      rev.SupervisorNombre,
		"supervisor_validado_at": rev.ValidadoAt.UTC(),
	}
	if rev.MotivoRechazo != nil {
		updates["motivo_rechazo"] = *rev.MotivoRechazo
	}

	res := r.db.WithContext(ctx).Model(&model.CierreCaja{}).
		Where("id = ? AND estado = ?", id, model.EstadoPendiente).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}
