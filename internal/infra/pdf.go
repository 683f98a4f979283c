package infra

// pdf.go: closure report using go-pdf/fpdf.
// One A4 page with:
//   - Store name and closure number
//   - Scope, period and cashier
//   - Theoretical snapshot (sales, returns, net, transactions, customers, ticket)
//   - Per payment method table (theoretical, declared, difference)
//   - Counted denominations
//   - Status and review stamp
//
// The worker saves it to storagePath/cierre_{numero}.pdf; the API streams it.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cierrecaja/internal/model"
	"cierrecaja/internal/money"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReporteMeta carries the deployment values printed on the report.
type ReporteMeta struct {
	Tienda  string
	Simbolo string
	Zona    *time.Location
}

// CierrePDFName is the file name of a closure report.
func CierrePDFName(numero int64) string {
	return fmt.Sprintf("cierre_%d.pdf", numero)
}

// GenerateCierrePDF writes the report of c under storagePath and returns its path.
func GenerateCierrePDF(c *model.CierreCaja, meta ReporteMeta, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	pdf := buildCierrePDF(c, meta)
	filePath := filepath.Join(storagePath, CierrePDFName(c.NumeroCierre))
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// RenderCierrePDF returns the report of c in memory.
func RenderCierrePDF(c *model.CierreCaja, meta ReporteMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := buildCierrePDF(c, meta).Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func buildCierrePDF(c *model.CierreCaja, meta ReporteMeta) *fpdf.Fpdf {
	zona := meta.Zona
	if zona == nil {
		zona = time.UTC
	}
	monto := func(d decimal.Decimal) string { return money.Format(meta.Simbolo, d) }
	fecha := func(t time.Time) string { return t.In(zona).Format("02/01/2006 15:04:05") }

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr(meta.Tienda), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Cierre de caja N° %d", c.NumeroCierre)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Datos generales ──────────────────────────────────────────────────────
	alcance := "Tienda completa"
	if !c.Alcance.EsTienda() && c.Alcance.CajeroID != nil {
		alcance = "Cajero " + c.Alcance.CajeroID.String()
	}
	fila := func(label, valor string) {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(45, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW-45, 5, tr(valor), "", 1, "L", false, 0, "")
	}
	fila("Alcance:", alcance)
	fila("Período:", fecha(c.FechaInicio)+"  a  "+fecha(c.FechaFin))
	fila("Registrado por:", c.CajeroNombre)
	fila("Estado:", c.Estado)
	pdf.Ln(3)

	// ── Teórico ──────────────────────────────────────────────────────────────
	seccion(pdf, tr("Resumen teórico"), contentW)
	fila("Ventas:", monto(c.VentasTeoricas))
	fila("Devoluciones:", monto(c.DevolucionesTeoricas))
	fila("Total neto:", monto(c.TotalTeorico))
	fila("Transacciones:", fmt.Sprintf("%d", c.TotalTransacciones))
	fila("Clientes:", fmt.Sprintf("%d", c.TotalClientes))
	fila("Ticket promedio:", monto(c.TicketPromedio))
	pdf.Ln(3)

	// ── Métodos de pago ──────────────────────────────────────────────────────
	seccion(pdf, tr("Métodos de pago"), contentW)
	col := []float64{contentW * 0.34, contentW * 0.22, contentW * 0.22, contentW * 0.22}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Método", "Teórico", "Declarado", "Diferencia"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(col[i], 6, tr(h), "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, p := range c.Pagos {
		pdf.CellFormat(col[0], 5, tr(p.MetodoPagoID), "", 0, "L", false, 0, "")
		pdf.CellFormat(col[1], 5, monto(p.MontoTeorico), "", 0, "R", false, 0, "")
		pdf.CellFormat(col[2], 5, monto(p.MontoDeclarado), "", 0, "R", false, 0, "")
		pdf.CellFormat(col[3], 5, monto(p.Diferencia), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col[0], 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(col[1], 6, monto(c.TotalTeorico), "T", 0, "R", false, 0, "")
	pdf.CellFormat(col[2], 6, monto(c.TotalDeclarado), "T", 0, "R", false, 0, "")
	pdf.CellFormat(col[3], 6, monto(c.Diferencia), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Diferencia porcentual: %s%%", c.DiferenciaPct.StringFixed(2))), "", 1, "R", false, 0, "")
	if c.DiferenciaSignificativa {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, tr("Diferencia significativa confirmada por el operador"), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// ── Denominaciones ───────────────────────────────────────────────────────
	if len(c.Denominaciones) > 0 {
		seccion(pdf, "Conteo de efectivo", contentW)
		pdf.SetFont("Helvetica", "", 9)
		total := decimal.Zero
		for _, d := range c.Denominaciones {
			label := fmt.Sprintf("%s %s x %d", d.Tipo, monto(d.Valor), d.Cantidad)
			pdf.CellFormat(contentW*0.7, 5, tr(label), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.3, 5, monto(d.Subtotal), "", 1, "R", false, 0, "")
			total = total.Add(d.Subtotal)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.7, 6, "Total contado", "T", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.3, 6, monto(total), "T", 1, "R", false, 0, "")
		pdf.Ln(3)
	}

	if c.Observaciones != nil && *c.Observaciones != "" {
		seccion(pdf, "Observaciones", contentW)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 5, tr(*c.Observaciones), "", "L", false)
		pdf.Ln(3)
	}

	// ── Revisión ─────────────────────────────────────────────────────────────
	if c.SupervisorNombre != nil {
		seccion(pdf, tr("Revisión"), contentW)
		fila("Supervisor:", *c.SupervisorNombre)
		if c.SupervisorValidadoAt != nil {
			fila("Fecha:", fecha(*c.SupervisorValidadoAt))
		}
		if c.MotivoRechazo != nil {
			fila("Motivo de rechazo:", *c.MotivoRechazo)
		}
	}

	return pdf
}

func seccion(pdf *fpdf.Fpdf, titulo string, w float64) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(w, 7, titulo, "", 1, "L", true, 0, "")
	pdf.Ln(1)
}
