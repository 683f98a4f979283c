package handler

import (
	"context"
	"errors"
	"net/http"

	"cierrecaja/internal/apierror"
	"cierrecaja/internal/denominacion"
	"cierrecaja/internal/service"

	"github.com/gin-gonic/gin"
)

// errorMapping maps each workflow failure to a status and a stable code.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrPeriodoInvalido, http.StatusBadRequest, "periodo_invalido"},
	{service.ErrMotivoRequerido, http.StatusUnprocessableEntity, "motivo_requerido"},
	{service.ErrSinMetodosPago, http.StatusUnprocessableEntity, "sin_metodos_pago"},
	{service.ErrMontoInvalido, http.StatusUnprocessableEntity, "monto_invalido"},
	{denominacion.ErrCantidadInvalida, http.StatusUnprocessableEntity, "cantidad_invalida"},
	{denominacion.ErrNoEnCatalogo, http.StatusUnprocessableEntity, "denominacion_invalida"},
	{service.ErrPermisoDenegado, http.StatusForbidden, "permiso_denegado"},
	{service.ErrCierreNoEncontrado, http.StatusNotFound, "cierre_no_encontrado"},
	{service.ErrCierrePendiente, http.StatusConflict, "cierre_pendiente"},
	{service.ErrTransicionInvalida, http.StatusConflict, "transicion_invalida"},
	{service.ErrStockNegativo, http.StatusConflict, "stock_negativo"},
	{service.ErrConfirmacionRequerida, http.StatusConflict, "confirmacion_requerida"},
	{service.ErrTeoricoDesactualizado, http.StatusConflict, "teorico_desactualizado"},
	{service.ErrLedgerNoDisponible, http.StatusServiceUnavailable, "ledger_no_disponible"},
}

// respondError writes the envelope for err. Unknown errors become a 500 whose
// detail never reaches the client; ErrorHandler logs them.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		body := apierror.WithCode(m.code, err.Error())

		var stock *service.StockNegativoError
		if errors.As(err, &stock) {
			body.Items = stock.Productos
		}
		var conf *service.ConfirmacionRequeridaError
		if errors.As(err, &conf) {
			body.Resultado = conf.Resultado
		}
		// The ledger cause stays in the logs.
		if m.err == service.ErrLedgerNoDisponible {
			body.Detail = service.ErrLedgerNoDisponible.Error()
		}
		c.AbortWithStatusJSON(m.status, body)
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.WithCode("cancelado", "La solicitud fue cancelada"))
		return
	}
	_ = c.Error(err)
}
