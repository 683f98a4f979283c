// Package testutil holds fixtures shared by package tests: a migrated pure-Go
// sqlite database and ledger seeding helpers.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"cierrecaja/internal/infra"
	"cierrecaja/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a file-backed sqlite database under t.TempDir() with the
// full schema applied. Times are stored in sqlite's sortable text format.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cierres.db") + "?_time_format=sqlite&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), infra.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.RunMigrations(db))
	return db
}

// Pago is one payment of a seeded sale.
type Pago struct {
	Metodo string
	Monto  string
}

// Ledger seeds sales, returns and products.
type Ledger struct {
	t      testing.TB
	db     *gorm.DB
	ticket int64
}

func NewLedger(t testing.TB, db *gorm.DB) *Ledger {
	return &Ledger{t: t, db: db}
}

// Venta inserts a sale whose total is the sum of its payments.
func (l *Ledger) Venta(usuario uuid.UUID, cliente *uuid.UUID, estado string, at time.Time, pagos ...Pago) *model.Venta {
	l.t.Helper()
	l.ticket++
	total := decimal.Zero
	v := &model.Venta{
		NumeroTicket: l.ticket,
		UsuarioID:    usuario,
		ClienteID:    cliente,
		Estado:       estado,
		CreatedAt:    at.UTC(),
	}
	for _, p := range pagos {
		m := decimal.RequireFromString(p.Monto)
		total = total.Add(m)
		v.Pagos = append(v.Pagos, model.VentaPago{MetodoPagoID: p.Metodo, Monto: m})
	}
	v.Total = total
	require.NoError(l.t, l.db.Create(v).Error)
	return v
}

// Devolucion inserts a return against venta.
func (l *Ledger) Devolucion(venta *model.Venta, usuario uuid.UUID, metodo, monto, estado string, at time.Time) {
	l.t.Helper()
	require.NoError(l.t, l.db.Create(&model.Devolucion{
		VentaID:      venta.ID,
		UsuarioID:    usuario,
		MetodoPagoID: metodo,
		Monto:        decimal.RequireFromString(monto),
		Estado:       estado,
		CreatedAt:    at.UTC(),
	}).Error)
}

// Producto inserts an active product with the given stock.
func (l *Ledger) Producto(nombre string, stock int) *model.Producto {
	l.t.Helper()
	p := &model.Producto{
		CodigoBarras: uuid.NewString()[:13],
		Nombre:       nombre,
		Categoria:    "general",
		StockActual:  stock,
		Activo:       true,
	}
	require.NoError(l.t, l.db.Create(p).Error)
	return p
}
