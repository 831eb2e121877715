package handler

import (
	"net/http"

	"github.com/Disi3664/sistema-multas/internal/apierror"
	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MultasHandler struct{ svc service.MultaService }

func NewMultasHandler(svc service.MultaService) *MultasHandler {
	return &MultasHandler{svc: svc}
}

// Crear godoc
// @Summary  Registrar una multa
// @Tags     multas
// @Accept   json
// @Produce  json
// @Param    multa body dto.CrearMultaRequest true "Datos de la multa"
// @Success  201 {object} dto.Response
// @Router   /v1/multas [post]
func (h *MultasHandler) Crear(c *gin.Context) {
	var req dto.CrearMultaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearMulta(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OKMsg(resp, "Multa registrada, identificacion de conductor en curso"))
}

// Listar godoc
// @Summary  Listar multas con filtros y paginacion
// @Tags     multas
// @Produce  json
// @Success  200 {object} dto.Response
// @Router   /v1/multas [get]
func (h *MultasHandler) Listar(c *gin.Context) {
	var filter dto.MultaFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMultas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar multas"))
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// ObtenerPorID godoc
// @Summary  Obtener una multa
// @Tags     multas
// @Produce  json
// @Param    id path string true "ID de la multa"
// @Success  200 {object} dto.Response
// @Router   /v1/multas/{id} [get]
func (h *MultasHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerMulta(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// ActualizarEstado godoc
// @Summary  Actualizar el estado de una multa
// @Tags     multas
// @Accept   json
// @Produce  json
// @Param    id     path string                      true "ID de la multa"
// @Param    estado body dto.ActualizarEstadoRequest true "Nuevo estado"
// @Success  200 {object} dto.Response
// @Router   /v1/multas/{id}/estado [put]
func (h *MultasHandler) ActualizarEstado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarEstado(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// ComunicarOrganismo godoc
// @Summary  Registrar la comunicacion de datos al organismo emisor
// @Tags     multas
// @Produce  json
// @Param    id path string true "ID de la multa"
// @Success  200 {object} dto.Response
// @Router   /v1/multas/{id}/comunicar [post]
func (h *MultasHandler) ComunicarOrganismo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ComunicarOrganismo(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKMsg(resp, "Comunicacion al organismo registrada"))
}

// Estadisticas godoc
// @Summary  Estadisticas agregadas de multas
// @Tags     multas
// @Produce  json
// @Success  200 {object} dto.Response
// @Router   /v1/multas/stats/general [get]
func (h *MultasHandler) Estadisticas(c *gin.Context) {
	var filter dto.EstadisticasFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ObtenerEstadisticas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular estadisticas"))
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}
