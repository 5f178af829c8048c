package sri_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
)

func detalle(desc string, cantidad, precio, descuento, tarifa float64) *entity.VentaDetalle {
	return &entity.VentaDetalle{
		Descripcion:    desc,
		Cantidad:       decimal.NewFromFloat(cantidad),
		PrecioUnitario: decimal.NewFromFloat(precio),
		Descuento:      decimal.NewFromFloat(descuento),
		TarifaIVA:      decimal.NewFromFloat(tarifa),
	}
}

func TestCalcularTotales_DosLineasIVA12(t *testing.T) {
	// 2 × 10.00 al 12% → subtotal 20.00, IVA 2.40, total 22.40.
	tot := sri.CalcularTotales([]*entity.VentaDetalle{
		detalle("Lavado completo", 1, 10.00, 0, 12),
		detalle("Encerado", 1, 10.00, 0, 12),
	})

	assert.Equal(t, "20.00", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", tot.Descuento.StringFixed(2))
	assert.Equal(t, "2.40", tot.IVA.StringFixed(2))
	assert.Equal(t, "22.40", tot.Total.StringFixed(2))
}

func TestCalcularTotales_TarifasMixtasYDescuento(t *testing.T) {
	// Línea gravada con descuento + línea tarifa 0.
	tot := sri.CalcularTotales([]*entity.VentaDetalle{
		detalle("Lavado express", 2, 7.50, 1.00, 12), // base 14.00, IVA 1.68
		detalle("Franela", 1, 3.00, 0, 0),            // base 3.00, IVA 0
	})

	assert.Equal(t, "17.00", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "1.00", tot.Descuento.StringFixed(2))
	assert.Equal(t, "1.68", tot.IVA.StringFixed(2))
	assert.Equal(t, "18.68", tot.Total.StringFixed(2))
}

func TestCalcularTotales_RedondeoPorLineaReconcilia(t *testing.T) {
	// Precios que fuerzan fracciones de centavo en el IVA por línea.
	detalles := []*entity.VentaDetalle{
		detalle("Servicio A", 1, 0.33, 0, 12), // IVA crudo 0.0396 → 0.04
		detalle("Servicio B", 1, 0.33, 0, 12),
		detalle("Servicio C", 1, 0.33, 0, 12),
	}
	tot := sri.CalcularTotales(detalles)

	// El agregado es la suma de los IVA por línea ya redondeados: los totales
	// publicados siempre reconcilian con las líneas del XML.
	assert.Equal(t, "0.12", tot.IVA.StringFixed(2))
	assert.Equal(t, "0.99", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "1.11", tot.Total.StringFixed(2))
}

func TestCalcularTotales_SinLineas(t *testing.T) {
	tot := sri.CalcularTotales(nil)
	assert.True(t, tot.Subtotal.IsZero())
	assert.True(t, tot.Total.IsZero())
}

func TestValidarFactura_Completa(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	tot := sri.CalcularTotales(detalles)
	f := facturaValida(tot)

	require.NoError(t, sri.ValidarFactura(f, detalles))
}

func TestValidarFactura_EmisorIncompleto(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	f := facturaValida(sri.CalcularTotales(detalles))
	f.EmisorRUC = ""

	err := sri.ValidarFactura(f, detalles)
	require.Error(t, err)
	assert.ErrorIs(t, err, sri.ErrFacturaInvalida)
}

func TestValidarFactura_TotalesDescuadrados(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	f := facturaValida(sri.CalcularTotales(detalles))
	f.IVA = decimal.NewFromFloat(9.99) // descuadre muy por encima de la tolerancia

	err := sri.ValidarFactura(f, detalles)
	require.Error(t, err)
	assert.ErrorIs(t, err, sri.ErrFacturaInvalida)
}

func TestValidarFactura_ToleranciaDeUnCentavo(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	tot := sri.CalcularTotales(detalles)
	f := facturaValida(tot)
	f.IVA = tot.IVA.Add(decimal.NewFromFloat(0.01)) // dentro de la tolerancia

	assert.NoError(t, sri.ValidarFactura(f, detalles),
		"una diferencia de 0.01 por redondeo no debe rechazar la factura")
}

func TestValidarFactura_RUCEmisorInvalido(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	f := facturaValida(sri.CalcularTotales(detalles))
	f.EmisorRUC = "2590012345001" // provincia 25 no existe

	err := sri.ValidarFactura(f, detalles)
	require.Error(t, err)
	assert.ErrorIs(t, err, sri.ErrFacturaInvalida)
	assert.Contains(t, err.Error(), "RUC del emisor")
}

func TestValidarFactura_CedulaCompradorInvalida(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	f := facturaValida(sri.CalcularTotales(detalles))
	f.CompradorIdentificacion = "1710034066" // dígito verificador incorrecto

	err := sri.ValidarFactura(f, detalles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cédula del comprador")
}

func TestValidarFactura_PasaporteSinDigitoVerificador(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 1, 10.00, 0, 12)}
	f := facturaValida(sri.CalcularTotales(detalles))
	f.CompradorIdentificacion = "AB123456" // pasaporte: forma libre

	assert.NoError(t, sri.ValidarFactura(f, detalles))
}

func TestValidarFactura_CantidadNoPositiva(t *testing.T) {
	detalles := []*entity.VentaDetalle{detalle("Lavado completo", 0, 10.00, 0, 12)}
	f := facturaValida(sri.Totales{})

	err := sri.ValidarFactura(f, detalles)
	require.Error(t, err)
}

func facturaValida(tot sri.Totales) *entity.Factura {
	return &entity.Factura{
		EmisorRUC:               "1790012345001",
		EmisorRazonSocial:       "MAXIMO LAVADO S.A.S.",
		EmisorDirMatriz:         "Av. de los Shyris N34-120, Quito",
		CompradorIdentificacion: "1710034065",
		CompradorRazonSocial:    "Juan Pérez",
		Subtotal:                tot.Subtotal,
		Descuento:               tot.Descuento,
		IVA:                     tot.IVA,
		Total:                   tot.Total,
	}
}
