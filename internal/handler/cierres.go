package handler

import (
	"net/http"
	"time"

	"cierrecaja/internal/apierror"
	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/denominacion"
	"cierrecaja/internal/dto"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/model"
	"cierrecaja/internal/service"

	"github.com/gin-gonic/gin"
)

type CierresHandler struct {
	svc      service.CierreService
	periodos service.PeriodoService
	meta     infra.ReporteMeta
}

func NewCierresHandler(svc service.CierreService, periodos service.PeriodoService, meta infra.ReporteMeta) *CierresHandler {
	if meta.Zona == nil {
		meta.Zona = time.UTC
	}
	return &CierresHandler{svc: svc, periodos: periodos, meta: meta}
}

// Denominaciones godoc
// @Summary Catalogo de billetes y monedas de la tienda
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Success 200 {object} denominacion.Catalogo
// @Router /v1/cierres/denominaciones [get]
func (h *CierresHandler) Denominaciones(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalogo())
}

// PeriodoSugerido godoc
// @Summary Siguiente periodo del alcance
// @Description Empieza donde termino el ultimo cierre aprobado, o al inicio del dia.
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param alcance query string false "tienda | cajero"
// @Param cajero_id query string false "UUID del cajero"
// @Success 200 {object} dto.PeriodoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cierres/periodo-sugerido [get]
func (h *CierresHandler) PeriodoSugerido(c *gin.Context) {
	var q dto.AlcanceQuery
	if !bindQuery(c, &q) {
		return
	}
	alcance, err := parseAlcance(q.Alcance, q.CajeroID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
		return
	}
	p, err := h.periodos.Sugerir(c.Request.Context(), alcance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PeriodoResponse{FechaInicio: p.Inicio, FechaFin: p.Fin})
}

// Teorico godoc
// @Summary Totales teoricos del registro de ventas
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param alcance query string false "tienda | cajero"
// @Param cajero_id query string false "UUID del cajero"
// @Param fecha_inicio query string true "RFC 3339, inclusivo"
// @Param fecha_fin query string true "RFC 3339, exclusivo"
// @Success 200 {object} arqueo.ResumenTeorico
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/cierres/teorico [get]
func (h *CierresHandler) Teorico(c *gin.Context) {
	var q dto.TeoricoQuery
	if !bindQuery(c, &q) {
		return
	}
	alcance, err := parseAlcance(q.Alcance, q.CajeroID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
		return
	}
	inicio, err := parseFecha(q.FechaInicio, h.meta.Zona, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("periodo_invalido", err.Error()))
		return
	}
	fin, err := parseFecha(q.FechaFin, h.meta.Zona, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("periodo_invalido", err.Error()))
		return
	}

	r, err := h.svc.Teorico(c.Request.Context(), actor(c), alcance, arqueo.Periodo{Inicio: *inicio, Fin: *fin})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ValidarStock godoc
// @Summary Verifica que no haya productos con stock negativo
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ValidacionStock
// @Router /v1/cierres/validar-stock [get]
func (h *CierresHandler) ValidarStock(c *gin.Context) {
	var q dto.AlcanceQuery
	if !bindQuery(c, &q) {
		return
	}
	alcance, err := parseAlcance(q.Alcance, q.CajeroID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
		return
	}
	v, err := h.svc.ValidarStock(c.Request.Context(), alcance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Preparar godoc
// @Summary Prepara un nuevo cierre: periodo, teorico, lineas y denominaciones
// @Tags cierres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PrepararCierreRequest true "Alcance"
// @Success 200 {object} service.Preparacion
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cierres/preparar [post]
func (h *CierresHandler) Preparar(c *gin.Context) {
	var req dto.PrepararCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	alcance, err := model.NuevoAlcance(req.Alcance.Tipo, req.Alcance.CajeroID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
		return
	}
	prep, err := h.svc.Preparar(c.Request.Context(), actor(c), alcance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prep)
}

// Calcular godoc
// @Summary Previsualiza el arqueo sin registrarlo
// @Tags cierres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CalcularCierreRequest true "Teorico y montos declarados"
// @Success 200 {object} dto.CalculoResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/cierres/calcular [post]
func (h *CierresHandler) Calcular(c *gin.Context) {
	var req dto.CalcularCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	denoms, err := denominaciones(req.Denominaciones)
	if err != nil {
		respondError(c, err)
		return
	}
	calc, err := h.svc.Calcular(c.Request.Context(), service.CalculoCierre{
		Teorico:        req.Teorico,
		Pagos:          pagosDeclarados(req.Pagos),
		Denominaciones: denoms,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CalculoResponse{
		Resultado:      calc.Resultado,
		TotalEfectivo:  calc.TotalEfectivo,
		Denominaciones: lineasResponse(calc.Denominaciones),
	})
}

// Registrar godoc
// @Summary Registra un cierre de caja pendiente de revision
// @Tags cierres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarCierreRequest true "Cierre"
// @Success 201 {object} dto.CierreResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cierres [post]
func (h *CierresHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	alcance, err := model.NuevoAlcance(req.Alcance.Tipo, req.Alcance.CajeroID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
		return
	}
	denoms, err := denominaciones(req.Denominaciones)
	if err != nil {
		respondError(c, err)
		return
	}

	reg := service.RegistroCierre{
		Alcance:             alcance,
		Periodo:             arqueo.Periodo{Inicio: req.FechaInicio, Fin: req.FechaFin},
		Pagos:               pagosDeclarados(req.Pagos),
		Denominaciones:      denoms,
		Observaciones:       req.Observaciones,
		ConfirmarDiferencia: req.ConfirmarDiferencia,
	}
	if req.Teorico != nil {
		reg.Teorico = *req.Teorico
	}

	cierre, err := h.svc.Registrar(c.Request.Context(), actor(c), reg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCierreResponse(cierre))
}

// Listar godoc
// @Summary Lista cierres con filtros y paginacion
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param estado query string false "pendiente | aprobado | rechazado"
// @Param fecha_inicio query string false "RFC 3339 o YYYY-MM-DD"
// @Param fecha_fin query string false "RFC 3339 o YYYY-MM-DD"
// @Param alcance query string false "tienda | cajero"
// @Param cajero_id query string false "UUID del cajero"
// @Param significativa query bool false "Solo diferencias significativas"
// @Param page query int false "Pagina" default(1)
// @Param page_size query int false "Tamano de pagina" default(20)
// @Success 200 {object} dto.CierreListResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/cierres [get]
func (h *CierresHandler) Listar(c *gin.Context) {
	var q dto.CierreFilter
	if !bindQuery(c, &q) {
		return
	}
	f := service.FiltroCierres{
		Estado:        q.Estado,
		Significativa: q.Significativa,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}
	var err error
	if f.Desde, err = parseFecha(q.FechaInicio, h.meta.Zona, false); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("periodo_invalido", err.Error()))
		return
	}
	if f.Hasta, err = parseFecha(q.FechaFin, h.meta.Zona, true); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("periodo_invalido", err.Error()))
		return
	}
	if q.Alcance != "" {
		alcance, err := parseAlcance(q.Alcance, q.CajeroID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.WithCode("alcance_invalido", err.Error()))
			return
		}
		f.Alcance = &alcance
	}

	page, err := h.svc.Listar(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.CierreListResponse{
		Data:       make([]dto.CierreResponse, len(page.Data)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
	}
	for i := range page.Data {
		resp.Data[i] = dto.NewCierreResponse(&page.Data[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtiene un cierre con sus lineas
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del cierre"
// @Success 200 {object} dto.CierreResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/cierres/{id} [get]
func (h *CierresHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cierre, err := h.svc.Obtener(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCierreResponse(cierre))
}

// Aprobar godoc
// @Summary Aprueba un cierre pendiente
// @Tags cierres
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del cierre"
// @Success 200 {object} dto.CierreResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cierres/{id}/aprobar [post]
func (h *CierresHandler) Aprobar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cierre, err := h.svc.Aprobar(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCierreResponse(cierre))
}

// Rechazar godoc
// @Summary Rechaza un cierre pendiente con motivo
// @Tags cierres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del cierre"
// @Param body body dto.RechazarCierreRequest true "Motivo"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cierres/{id}/rechazar [post]
func (h *CierresHandler) Rechazar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.RechazarCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cierre, err := h.svc.Rechazar(c.Request.Context(), actor(c), id, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCierreResponse(cierre))
}

// DescargarPDF godoc
// @Summary Descarga el reporte del cierre en PDF
// @Tags cierres
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID del cierre"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/cierres/{id}/pdf [get]
func (h *CierresHandler) DescargarPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cierre, err := h.svc.Obtener(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := infra.RenderCierrePDF(cierre, h.meta)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+infra.CierrePDFName(cierre.NumeroCierre)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ── mapping ───────────────────────────────────────────────────────────────────

func pagosDeclarados(in []dto.PagoDeclaradoRequest) []arqueo.PagoDeclarado {
	out := make([]arqueo.PagoDeclarado, len(in))
	for i, p := range in {
		out[i] = arqueo.PagoDeclarado{
			MetodoPagoID:      p.MetodoPagoID,
			MontoDeclarado:    p.MontoDeclarado,
			CantidadDeclarada: p.CantidadDeclarada,
			Notas:             p.Notas,
		}
	}
	return out
}

func denominaciones(in []dto.DenominacionRequest) ([]service.DenominacionContada, error) {
	out := make([]service.DenominacionContada, len(in))
	for i, d := range in {
		n, err := denominacion.ParseCantidad(d.Cantidad)
		if err != nil {
			return nil, err
		}
		out[i] = service.DenominacionContada{Valor: d.Valor, Tipo: denominacion.Tipo(d.Tipo), Cantidad: n}
	}
	return out, nil
}

func lineasResponse(in []denominacion.Linea) []dto.CierreDenominacionResponse {
	out := make([]dto.CierreDenominacionResponse, len(in))
	for i, l := range in {
		out[i] = dto.CierreDenominacionResponse{Valor: l.Valor, Tipo: string(l.Tipo), Cantidad: l.Cantidad, Subtotal: l.Subtotal}
	}
	return out
}
