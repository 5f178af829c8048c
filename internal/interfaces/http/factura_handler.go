package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/dto"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/facturacion"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

// FacturaHandler maneja las peticiones HTTP de facturación electrónica.
type FacturaHandler struct {
	emitirUC    *facturacion.EmitirFacturaUseCase
	orquestador *facturacion.OrquestadorSRI
	facturaRepo repository.FacturaRepository
}

// NewFacturaHandler construye el handler.
func NewFacturaHandler(
	emitirUC *facturacion.EmitirFacturaUseCase,
	orquestador *facturacion.OrquestadorSRI,
	facturaRepo repository.FacturaRepository,
) *FacturaHandler {
	return &FacturaHandler{emitirUC: emitirUC, orquestador: orquestador, facturaRepo: facturaRepo}
}

// Emitir crea la factura de una venta y dispara la autorización SRI.
// POST /api/ventas/:id/factura
func (h *FacturaHandler) Emitir(c *fiber.Ctx) error {
	ventaID := c.Params("id")
	if ventaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de venta requerido"})
	}
	factura, err := h.emitirUC.Execute(c.Context(), ventaID)
	if err != nil {
		if errors.Is(err, domain.ErrVentaFacturada) {
			// Idempotencia hacia el cliente: devolvemos la factura existente.
			return c.Status(fiber.StatusConflict).JSON(dto.FacturaFromEntity(factura))
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta o cliente no encontrado"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrConfiguracion) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CONFIG", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.FacturaFromEntity(factura))
}

// GetByID obtiene la factura completa.
// GET /api/facturas/:id
func (h *FacturaHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	factura, err := h.facturaRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FacturaFromEntity(factura))
}

// Autorizacion consulta (y re-consulta en el SRI si sigue pendiente) el estado
// de autorización de la factura.
// GET /api/facturas/:id/autorizacion
func (h *FacturaHandler) Autorizacion(c *fiber.Ctx) error {
	id := c.Params("id")
	factura, err := h.orquestador.ConsultarAutorizacion(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		if factura != nil {
			// La consulta falló pero la factura existe: devolvemos su estado actual.
			return c.JSON(dto.EstadoFromEntity(factura))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.EstadoFromEntity(factura))
}

// Reenviar devuelve una factura rechazada a borrador y reintenta la autorización.
// POST /api/facturas/:id/reenviar
func (h *FacturaHandler) Reenviar(c *fiber.Ctx) error {
	id := c.Params("id")
	factura, err := h.orquestador.Reenviar(c.Context(), id)
	if err != nil {
		return h.errorTransicion(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.FacturaFromEntity(factura))
}

// Anular marca una factura autorizada como anulada.
// POST /api/facturas/:id/anular
func (h *FacturaHandler) Anular(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.AnularFacturaRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.orquestador.Anular(c.Context(), id, in.Motivo)
	if err != nil {
		return h.errorTransicion(c, err)
	}
	return c.JSON(dto.FacturaFromEntity(factura))
}

func (h *FacturaHandler) errorTransicion(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	}
	var invalida *entity.ErrTransicionInvalida
	if errors.As(err, &invalida) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ESTADO_INVALIDO", Message: invalida.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
