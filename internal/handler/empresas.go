package handler

import (
	"net/http"

	"github.com/Disi3664/sistema-multas/internal/apierror"
	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EmpresasHandler struct{ svc service.EmpresaService }

func NewEmpresasHandler(svc service.EmpresaService) *EmpresasHandler {
	return &EmpresasHandler{svc: svc}
}

func (h *EmpresasHandler) Crear(c *gin.Context) {
	var req dto.CrearEmpresaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearEmpresa(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(resp))
}

func (h *EmpresasHandler) Listar(c *gin.Context) {
	var activo *bool
	switch c.Query("activo") {
	case "true":
		v := true
		activo = &v
	case "false":
		v := false
		activo = &v
	}
	resp, err := h.svc.ListarEmpresas(c.Request.Context(), activo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar empresas"))
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

func (h *EmpresasHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerEmpresa(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

func (h *EmpresasHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarEmpresaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarEmpresa(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

func (h *EmpresasHandler) CrearVehiculo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CrearVehiculoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVehiculo(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(resp))
}

func (h *EmpresasHandler) ListarVehiculos(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListarVehiculos(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// VerificarConexion probes the empresa's conductor microservice health
// endpoint. Always 200 when the empresa exists — availability goes in the body.
func (h *EmpresasHandler) VerificarConexion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.VerificarConexion(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}
