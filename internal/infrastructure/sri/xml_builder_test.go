package sri_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	infrasri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri"
)

func buildTestContext() *infrasri.FacturaBuildContext {
	return &infrasri.FacturaBuildContext{
		Factura: &entity.Factura{
			Establecimiento: "001",
			PuntoEmision:    "002",
			Secuencial:      123,
			Ambiente:        "1",
			TipoDocumento:   "01",
			TipoEmision:     "1",

			EmisorRUC:                  "1790012345001",
			EmisorRazonSocial:          "MAXIMO LAVADO S.A.S.",
			EmisorNombreComercial:      "Máximo Lavado",
			EmisorDirMatriz:            "Av. de los Shyris N34-120, Quito",
			EmisorDirEstablecimiento:   "Av. 6 de Diciembre y Colón",
			EmisorObligadoContabilidad: true,

			CompradorIdentificacion:     "1710034065",
			CompradorTipoIdentificacion: "05",
			CompradorRazonSocial:        "Juan Pérez",
			CompradorEmail:              "juan@example.com",
			CompradorTelefono:           "0991234567",

			TarifaIVA:    decimal.NewFromInt(12),
			FechaEmision: time.Date(2024, 7, 15, 14, 0, 0, 0, time.UTC),
			ClaveAcceso:  "1507202401179001234500110010020000001231234567813",
		},
		Detalles: []*entity.VentaDetalle{
			{
				CodigoPrincipal: "LAV-01",
				Descripcion:     "Lavado completo",
				Cantidad:        decimal.NewFromInt(1),
				PrecioUnitario:  decimal.NewFromFloat(10.00),
				TarifaIVA:       decimal.NewFromInt(12),
			},
			{
				CodigoPrincipal: "ENC-01",
				Descripcion:     "Encerado",
				Cantidad:        decimal.NewFromInt(1),
				PrecioUnitario:  decimal.NewFromFloat(10.00),
				TarifaIVA:       decimal.NewFromInt(12),
			},
		},
	}
}

func TestBuild_EstructuraCompleta(t *testing.T) {
	svc := infrasri.NewXMLBuilderService()

	xmlBytes, err := svc.Build(buildTestContext())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xmlBytes), "el XML generado debe ser bien formado")

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "factura", root.Tag)
	assert.Equal(t, "comprobante", root.SelectAttrValue("id", ""),
		"el id del raíz es la Reference de la firma enveloped")
	assert.Equal(t, "1.1.0", root.SelectAttrValue("version", ""))

	// infoTributaria: identidad del comprobante
	it := root.SelectElement("infoTributaria")
	require.NotNil(t, it)
	assert.Equal(t, "1", it.SelectElement("ambiente").Text())
	assert.Equal(t, "1790012345001", it.SelectElement("ruc").Text())
	assert.Equal(t, "01", it.SelectElement("codDoc").Text())
	assert.Equal(t, "001", it.SelectElement("estab").Text())
	assert.Equal(t, "002", it.SelectElement("ptoEmi").Text())
	assert.Equal(t, "000000123", it.SelectElement("secuencial").Text(),
		"el secuencial va con ceros a la izquierda hasta 9 dígitos")
	assert.Len(t, it.SelectElement("claveAcceso").Text(), 49)

	// infoFactura: fecha dd/mm/yyyy, comprador y totales derivados de las líneas
	inf := root.SelectElement("infoFactura")
	require.NotNil(t, inf)
	assert.Equal(t, "15/07/2024", inf.SelectElement("fechaEmision").Text())
	assert.Equal(t, "SI", inf.SelectElement("obligadoContabilidad").Text())
	assert.Equal(t, "05", inf.SelectElement("tipoIdentificacionComprador").Text())
	assert.Equal(t, "1710034065", inf.SelectElement("identificacionComprador").Text())
	assert.Equal(t, "20.00", inf.SelectElement("totalSinImpuestos").Text())
	assert.Equal(t, "0.00", inf.SelectElement("totalDescuento").Text())
	assert.Equal(t, "0.00", inf.SelectElement("propina").Text())
	assert.Equal(t, "22.40", inf.SelectElement("importeTotal").Text())
	assert.Equal(t, "DOLAR", inf.SelectElement("moneda").Text())

	// Un único bloque agregado de IVA que reconcilia con las líneas
	totales := inf.SelectElement("totalConImpuestos").SelectElements("totalImpuesto")
	require.Len(t, totales, 1)
	assert.Equal(t, "2", totales[0].SelectElement("codigo").Text())
	assert.Equal(t, "2", totales[0].SelectElement("codigoPorcentaje").Text())
	assert.Equal(t, "20.00", totales[0].SelectElement("baseImponible").Text())
	assert.Equal(t, "2.40", totales[0].SelectElement("valor").Text())

	// detalles: cada línea con su propio desglose
	detalles := root.SelectElement("detalles").SelectElements("detalle")
	require.Len(t, detalles, 2)
	primero := detalles[0]
	assert.Equal(t, "LAV-01", primero.SelectElement("codigoPrincipal").Text())
	assert.Equal(t, "10.00", primero.SelectElement("precioTotalSinImpuesto").Text())
	imp := primero.SelectElement("impuestos").SelectElement("impuesto")
	require.NotNil(t, imp)
	assert.Equal(t, "12.00", imp.SelectElement("tarifa").Text())
	assert.Equal(t, "1.20", imp.SelectElement("valor").Text())

	// infoAdicional con email y teléfono del comprador
	ia := root.SelectElement("infoAdicional")
	require.NotNil(t, ia)
	campos := ia.SelectElements("campoAdicional")
	require.Len(t, campos, 2)
	assert.Equal(t, "email", campos[0].SelectAttrValue("nombre", ""))
	assert.Equal(t, "juan@example.com", campos[0].Text())
}

func TestBuild_Idempotente(t *testing.T) {
	svc := infrasri.NewXMLBuilderService()

	x1, err1 := svc.Build(buildTestContext())
	x2, err2 := svc.Build(buildTestContext())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, x1, x2, "reconstruir con la misma clave de acceso debe dar bytes idénticos")
}

func TestBuild_SinClaveAcceso(t *testing.T) {
	svc := infrasri.NewXMLBuilderService()
	ctx := buildTestContext()
	ctx.Factura.ClaveAcceso = ""

	_, err := svc.Build(ctx)
	assert.Error(t, err, "sin clave de acceso no hay comprobante")
}

func TestBuild_CamposOpcionalesAusentes(t *testing.T) {
	svc := infrasri.NewXMLBuilderService()
	ctx := buildTestContext()
	ctx.Factura.EmisorNombreComercial = ""
	ctx.Factura.CompradorEmail = ""
	ctx.Factura.CompradorTelefono = ""

	xmlBytes, err := svc.Build(ctx)
	require.NoError(t, err)

	s := string(xmlBytes)
	assert.NotContains(t, s, "nombreComercial")
	assert.NotContains(t, s, "infoAdicional", "sin email ni teléfono no se emite el bloque")
	assert.True(t, strings.HasPrefix(s, "<?xml"), "el documento lleva la declaración XML")
}

func TestBuild_ConsumidorFinal(t *testing.T) {
	svc := infrasri.NewXMLBuilderService()
	ctx := buildTestContext()
	ctx.Factura.CompradorIdentificacion = "9999999999999"
	ctx.Factura.CompradorTipoIdentificacion = "07"
	ctx.Factura.CompradorRazonSocial = "CONSUMIDOR FINAL"

	xmlBytes, err := svc.Build(ctx)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(xmlBytes))
	inf := doc.Root().SelectElement("infoFactura")
	assert.Equal(t, "07", inf.SelectElement("tipoIdentificacionComprador").Text())
	assert.Equal(t, "9999999999999", inf.SelectElement("identificacionComprador").Text())
}
