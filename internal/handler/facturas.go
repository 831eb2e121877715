package handler

import (
	"net/http"

	"github.com/Disi3664/sistema-multas/internal/apierror"
	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FacturasHandler struct{ svc service.FacturaService }

func NewFacturasHandler(svc service.FacturaService) *FacturasHandler {
	return &FacturasHandler{svc: svc}
}

func (h *FacturasHandler) Listar(c *gin.Context) {
	var filter dto.FacturaFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListarFacturas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar facturas"))
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

func (h *FacturasHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerFactura(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// Generar godoc
// @Summary  Generar las facturas de un mes
// @Tags     facturas
// @Accept   json
// @Produce  json
// @Param    periodo body dto.GenerarFacturasRequest true "Mes y anio a facturar"
// @Success  201 {object} dto.Response
// @Router   /v1/facturas/generar [post]
func (h *FacturasHandler) Generar(c *gin.Context) {
	var req dto.GenerarFacturasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerarFacturas(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al generar facturas"))
		return
	}
	c.JSON(http.StatusCreated, dto.OKMsg(resp, "Facturacion mensual generada"))
}

func (h *FacturasHandler) ActualizarEstado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarEstadoFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarEstado(c.Request.Context(), id, req.Estado)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}
