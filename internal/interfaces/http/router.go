package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/facturacion"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmitirFactura *facturacion.EmitirFacturaUseCase
	Orquestador   *facturacion.OrquestadorSRI
	FacturaRepo   repository.FacturaRepository
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	facturaHandler := NewFacturaHandler(deps.EmitirFactura, deps.Orquestador, deps.FacturaRepo)

	// Emisión sobre ventas completadas
	api.Post("/ventas/:id/factura", facturaHandler.Emitir)

	// Ciclo de vida de la factura electrónica
	facturas := api.Group("/facturas")
	facturas.Get("/:id", facturaHandler.GetByID)
	facturas.Get("/:id/autorizacion", facturaHandler.Autorizacion)
	facturas.Post("/:id/reenviar", facturaHandler.Reenviar)
	facturas.Post("/:id/anular", facturaHandler.Anular)
}
