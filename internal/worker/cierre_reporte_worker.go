package worker

// cierre_reporte_worker.go
// Processes QueueCierreReporte: renders cierre_{numero}.pdf to PDF_STORAGE_PATH and,
// for a newly submitted closure with a significant difference, queues an email
// to the supervisor with the report attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cierrecaja/internal/infra"
	"cierrecaja/internal/model"
	"cierrecaja/internal/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Evento del reporte: "registrado" | "aprobado" | "rechazado"
const (
	EventoRegistrado = "registrado"
	EventoAprobado   = "aprobado"
	EventoRechazado  = "rechazado"
)

// CierreReportePayload is the job envelope sent to QueueCierreReporte.
type CierreReportePayload struct {
	CierreID string `json:"cierre_id"`
	Evento   string `json:"evento"`
}

// CierreLector is satisfied by repository.CierreRepository.
type CierreLector interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
}

// EmailEncolador is satisfied by *Dispatcher.
type EmailEncolador interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type CierreReporteWorker struct {
	repo            CierreLector
	emails          EmailEncolador
	meta            infra.ReporteMeta
	storagePath     string
	supervisorEmail string
}

func NewCierreReporteWorker(repo CierreLector, emails EmailEncolador, meta infra.ReporteMeta, storagePath, supervisorEmail string) *CierreReporteWorker {
	return &CierreReporteWorker{
		repo:            repo,
		emails:          emails,
		meta:            meta,
		storagePath:     storagePath,
		supervisorEmail: supervisorEmail,
	}
}

func (w *CierreReporteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload CierreReportePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanent("cierre_reporte: invalid payload: %v", err)
	}
	id, err := uuid.Parse(payload.CierreID)
	if err != nil {
		return permanent("cierre_reporte: invalid cierre_id %q", payload.CierreID)
	}

	c, err := w.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return permanent("cierre_reporte: cierre %s not found", id)
	}
	if err != nil {
		return err
	}

	path, err := infra.GenerateCierrePDF(c, w.meta, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().
		Str("cierre_id", c.ID.String()).
		Int64("numero_cierre", c.NumeroCierre).
		Str("evento", payload.Evento).
		Str("pdf", path).
		Msg("cierre_reporte: report written")

	if payload.Evento != EventoRegistrado || !c.DiferenciaSignificativa || w.supervisorEmail == "" || w.emails == nil {
		return nil
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.supervisorEmail,
		Subject: fmt.Sprintf("Cierre de caja N° %d con diferencia significativa", c.NumeroCierre),
		Body:    cuerpoAviso(c, w.meta.Simbolo),
		PDFPath: path,
	})
}

func cuerpoAviso(c *model.CierreCaja, simbolo string) string {
	return fmt.Sprintf(
		"El cierre N° %d (%s) registrado por %s quedó pendiente de revisión.\n\n"+
			"Teórico:    %s\nDeclarado:  %s\nDiferencia: %s (%s%%)\n",
		c.NumeroCierre, c.Alcance.Clave, c.CajeroNombre,
		money.Format(simbolo, c.TotalTeorico),
		money.Format(simbolo, c.TotalDeclarado),
		money.Format(simbolo, c.Diferencia),
		c.DiferenciaPct.StringFixed(2),
	)
}
