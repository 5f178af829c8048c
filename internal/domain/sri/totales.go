package sri

import (
	"github.com/shopspring/decimal"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// Totales son los montos agregados de una factura, derivados de sus líneas.
type Totales struct {
	Subtotal  decimal.Decimal // total sin impuestos
	Descuento decimal.Decimal
	IVA       decimal.Decimal
	Total     decimal.Decimal // importe total
}

// CalcularTotales deriva los montos de abajo hacia arriba desde las líneas:
// base por línea = cantidad × precio − descuento (piso en cero), IVA por
// línea redondeado a 2 decimales antes de sumar. Así la suma de impuestos
// por línea y el impuesto agregado coinciden siempre.
func CalcularTotales(detalles []*entity.VentaDetalle) Totales {
	var t Totales
	cien := decimal.NewFromInt(100)
	for _, d := range detalles {
		base := d.PrecioTotalSinImpuesto()
		t.Subtotal = t.Subtotal.Add(base)
		t.Descuento = t.Descuento.Add(d.Descuento)
		t.IVA = t.IVA.Add(base.Mul(d.TarifaIVA).Div(cien).Round(2))
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.Descuento = t.Descuento.Round(2)
	t.Total = t.Subtotal.Add(t.IVA).Round(2)
	return t
}
