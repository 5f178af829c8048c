package sri

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	domsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
)

// ComprobanteID es el valor del atributo id del elemento raíz <factura>.
// El firmador referencia este id en la Reference de la firma enveloped.
const ComprobanteID = "comprobante"

// XMLBuilderService construye el XML de la factura (esquema v1.1.0, sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento <factura> según el esquema 1.1.0.
// Los totales se derivan de las líneas (abajo hacia arriba); solo si la
// factura no tiene líneas se usan los montos ya guardados como respaldo.
// Reconstruir con la misma clave de acceso produce bytes idénticos.
func (s *XMLBuilderService) Build(ctx *FacturaBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Factura == nil {
		return nil, fmt.Errorf("sri: falta la factura en el contexto")
	}
	f := ctx.Factura
	if f.ClaveAcceso == "" {
		return nil, fmt.Errorf("sri: la factura no tiene clave de acceso")
	}

	tot := domsri.Totales{
		Subtotal:  f.Subtotal,
		Descuento: f.Descuento,
		IVA:       f.IVA,
		Total:     f.Total,
	}
	if len(ctx.Detalles) > 0 {
		tot = domsri.CalcularTotales(ctx.Detalles)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	// Root <factura> con id="comprobante" (Reference URI de la firma XAdES).
	root := xml.StartElement{
		Name: xml.Name{Local: "factura"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: ComprobanteID},
			{Name: xml.Name{Local: "version"}, Value: pkgsri.VersionFactura},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	s.writeInfoTributaria(enc, ctx)
	s.writeInfoFactura(enc, ctx, tot)

	// ---- detalles (cada línea repite su desglose de impuesto)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "detalles"}})
	for _, d := range ctx.Detalles {
		s.writeDetalle(enc, d)
	}
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "detalles"}})

	s.writeInfoAdicional(enc, ctx)

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) writeInfoTributaria(enc *xml.Encoder, ctx *FacturaBuildContext) {
	f := ctx.Factura
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "infoTributaria"}})
	writeElem(enc, "ambiente", f.Ambiente)
	writeElem(enc, "tipoEmision", f.TipoEmision)
	writeElem(enc, "razonSocial", f.EmisorRazonSocial)
	if f.EmisorNombreComercial != "" {
		writeElem(enc, "nombreComercial", f.EmisorNombreComercial)
	}
	writeElem(enc, "ruc", f.EmisorRUC)
	writeElem(enc, "claveAcceso", f.ClaveAcceso)
	writeElem(enc, "codDoc", f.TipoDocumento)
	writeElem(enc, "estab", f.Establecimiento)
	writeElem(enc, "ptoEmi", f.PuntoEmision)
	writeElem(enc, "secuencial", fmt.Sprintf("%09d", f.Secuencial))
	writeElem(enc, "dirMatriz", f.EmisorDirMatriz)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "infoTributaria"}})
}

func (s *XMLBuilderService) writeInfoFactura(enc *xml.Encoder, ctx *FacturaBuildContext, tot domsri.Totales) {
	f := ctx.Factura
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "infoFactura"}})
	writeElem(enc, "fechaEmision", f.FechaEmision.Format("02/01/2006"))
	if f.EmisorDirEstablecimiento != "" {
		writeElem(enc, "dirEstablecimiento", f.EmisorDirEstablecimiento)
	}
	writeElem(enc, "obligadoContabilidad", siNo(f.EmisorObligadoContabilidad))
	writeElem(enc, "tipoIdentificacionComprador", f.CompradorTipoIdentificacion)
	writeElem(enc, "razonSocialComprador", f.CompradorRazonSocial)
	writeElem(enc, "identificacionComprador", f.CompradorIdentificacion)
	if f.CompradorDireccion != "" {
		writeElem(enc, "direccionComprador", f.CompradorDireccion)
	}
	writeElem(enc, "totalSinImpuestos", formatDecimal(tot.Subtotal))
	writeElem(enc, "totalDescuento", formatDecimal(tot.Descuento))

	// Bloque agregado de impuestos: un solo totalImpuesto IVA que debe
	// reconciliar con la suma de los impuestos por línea.
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "totalConImpuestos"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "totalImpuesto"}})
	writeElem(enc, "codigo", pkgsri.ImpuestoIVA)
	writeElem(enc, "codigoPorcentaje", pkgsri.CodigoPorcentajeIVA(int(f.TarifaIVA.IntPart())))
	writeElem(enc, "baseImponible", formatDecimal(tot.Subtotal))
	writeElem(enc, "valor", formatDecimal(tot.IVA))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "totalImpuesto"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "totalConImpuestos"}})

	writeElem(enc, "propina", "0.00")
	writeElem(enc, "importeTotal", formatDecimal(tot.Total))
	writeElem(enc, "moneda", pkgsri.MonedaDolar)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "infoFactura"}})
}

func (s *XMLBuilderService) writeDetalle(enc *xml.Encoder, d *entity.VentaDetalle) {
	base := d.PrecioTotalSinImpuesto()
	iva := base.Mul(d.TarifaIVA).Div(decimal.NewFromInt(100)).Round(2)

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "detalle"}})
	codigo := d.CodigoPrincipal
	if codigo == "" {
		codigo = d.ID
	}
	writeElem(enc, "codigoPrincipal", codigo)
	writeElem(enc, "descripcion", d.Descripcion)
	writeElem(enc, "cantidad", formatDecimal(d.Cantidad))
	writeElem(enc, "precioUnitario", formatDecimal(d.PrecioUnitario))
	writeElem(enc, "descuento", formatDecimal(d.Descuento))
	writeElem(enc, "precioTotalSinImpuesto", formatDecimal(base))

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "impuestos"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "impuesto"}})
	writeElem(enc, "codigo", pkgsri.ImpuestoIVA)
	writeElem(enc, "codigoPorcentaje", pkgsri.CodigoPorcentajeIVA(int(d.TarifaIVA.IntPart())))
	writeElem(enc, "tarifa", formatDecimal(d.TarifaIVA))
	writeElem(enc, "baseImponible", formatDecimal(base))
	writeElem(enc, "valor", formatDecimal(iva))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "impuesto"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "impuestos"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "detalle"}})
}

func (s *XMLBuilderService) writeInfoAdicional(enc *xml.Encoder, ctx *FacturaBuildContext) {
	f := ctx.Factura
	if f.CompradorEmail == "" && f.CompradorTelefono == "" {
		return
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "infoAdicional"}})
	if f.CompradorEmail != "" {
		writeCampoAdicional(enc, "email", f.CompradorEmail)
	}
	if f.CompradorTelefono != "" {
		writeCampoAdicional(enc, "telefono", f.CompradorTelefono)
	}
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "infoAdicional"}})
}

func writeElem(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeCampoAdicional(enc *xml.Encoder, nombre, valor string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "campoAdicional"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "nombre"}, Value: nombre}},
	})
	_ = enc.EncodeToken(xml.CharData(valor))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "campoAdicional"}})
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func siNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}
