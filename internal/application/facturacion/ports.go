package facturacion

import (
	"context"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

// TxRunner ejecuta un callback con repos de factura y numeración atados a una
// misma transacción. La asignación del secuencial y el insert de la factura
// deben confirmar o revertirse juntos.
type TxRunner interface {
	RunFacturacion(ctx context.Context, fn func(
		facturaRepo repository.FacturaRepository,
		puntoEmisionRepo repository.PuntoEmisionRepository,
	) error) error
}
