// Package sri implementa la generación del XML de factura electrónica
// (esquema SRI v1.1.0) y el cliente SOAP de recepción/autorización.
package sri

import (
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// FacturaBuildContext contexto con todos los datos necesarios para construir
// el XML. El emisor y el comprador viajan ya como snapshot dentro de la
// Factura; las líneas llegan aparte porque pertenecen a la venta.
type FacturaBuildContext struct {
	Factura  *entity.Factura
	Detalles []*entity.VentaDetalle
}
