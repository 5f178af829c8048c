package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Venta representa una venta completada del lavadero (lectura desde el núcleo
// de facturación; su CRUD vive fuera de este subsistema).
type Venta struct {
	ID        string
	ClienteID string
	Fecha     time.Time
	Subtotal  decimal.Decimal
	Descuento decimal.Decimal
	IVA       decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VentaDetalle es una línea de la venta: servicio o producto vendido.
type VentaDetalle struct {
	ID              string
	VentaID         string
	Descripcion     string
	CodigoPrincipal string // código interno del servicio/producto
	Cantidad        decimal.Decimal
	PrecioUnitario  decimal.Decimal
	Descuento       decimal.Decimal // descuento por línea, monto absoluto
	TarifaIVA       decimal.Decimal // porcentaje (0, 12, 14)
}

// PrecioTotalSinImpuesto devuelve cantidad × precio − descuento, con piso en cero.
func (d *VentaDetalle) PrecioTotalSinImpuesto() decimal.Decimal {
	total := d.Cantidad.Mul(d.PrecioUnitario).Sub(d.Descuento)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
