package repository

import (
	"context"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// FacturaRepository define el puerto de persistencia para facturas.
type FacturaRepository interface {
	Create(ctx context.Context, f *entity.Factura) error
	// Update persiste todos los campos del ciclo de vida SRI:
	// estado, clave_acceso, xml_documento, xml_autorizado,
	// numero_autorizacion, fecha_autorizacion, mensaje y errores.
	Update(ctx context.Context, f *entity.Factura) error
	GetByID(ctx context.Context, id string) (*entity.Factura, error)
	// GetByVentaID devuelve la factura de una venta (nil si no está facturada).
	// Respaldo de la relación 1:1 venta↔factura.
	GetByVentaID(ctx context.Context, ventaID string) (*entity.Factura, error)
	// GetEstado devuelve solo los campos de estado (consulta ligera para polling).
	GetEstado(ctx context.Context, id string) (*entity.Factura, error)
}
