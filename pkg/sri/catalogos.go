// Package sri contiene catálogos y validaciones alineados a la ficha técnica
// de Comprobantes Electrónicos del SRI (Ecuador), esquema factura v1.1.0.
package sri

// =============================================================================
// Tabla 4 - Tipo de ambiente
// =============================================================================

const (
	AmbientePruebas    = "1" // Pruebas (celcer.sri.gob.ec)
	AmbienteProduccion = "2" // Producción (cel.sri.gob.ec)
)

// ValidAmbientes ambientes reconocidos por el SRI.
var ValidAmbientes = map[string]bool{
	AmbientePruebas:    true,
	AmbienteProduccion: true,
}

// =============================================================================
// Tabla 3 - Tipo de comprobante (codDoc)
// =============================================================================

const (
	DocFactura           = "01" // Factura
	DocNotaCredito       = "04" // Nota de crédito
	DocNotaDebito        = "05" // Nota de débito
	DocGuiaRemision      = "06" // Guía de remisión
	DocComprobanteRetenc = "07" // Comprobante de retención
)

// =============================================================================
// Tabla 2 - Tipo de emisión
// =============================================================================

const (
	EmisionNormal = "1" // Emisión normal (única vigente desde 2018)
)

// =============================================================================
// Tabla 6 - Tipo de identificación del comprador
// =============================================================================

const (
	IdentificacionRUC             = "04" // RUC (13 dígitos)
	IdentificacionCedula          = "05" // Cédula (10 dígitos)
	IdentificacionPasaporte       = "06" // Pasaporte u otro
	IdentificacionConsumidorFinal = "07" // Consumidor final
)

// ConsumidorFinalID es el identificador genérico de consumidor final (13 nueves).
const ConsumidorFinalID = "9999999999999"

// TipoIdentificacion deriva el código de tipo de identificación del comprador
// a partir de la forma del identificador, según la Tabla 6:
//
//	"9999999999999" → 07 consumidor final
//	10 dígitos      → 05 cédula
//	13 dígitos      → 04 RUC
//	otro            → 06 pasaporte/exterior
func TipoIdentificacion(identificacion string) string {
	if identificacion == ConsumidorFinalID {
		return IdentificacionConsumidorFinal
	}
	if !soloDigitos(identificacion) {
		return IdentificacionPasaporte
	}
	switch len(identificacion) {
	case 10:
		return IdentificacionCedula
	case 13:
		return IdentificacionRUC
	default:
		return IdentificacionPasaporte
	}
}

func soloDigitos(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// Tablas 16/17 - Impuestos y tarifas (IVA)
// =============================================================================

const (
	ImpuestoIVA  = "2" // IVA
	ImpuestoICE  = "3" // ICE
	ImpuestoIRBP = "5" // IRBPNR
)

// Códigos de porcentaje IVA (codigoPorcentaje).
const (
	TarifaIVA0     = "0" // 0%
	TarifaIVA12    = "2" // 12%
	TarifaIVA14    = "3" // 14%
	TarifaNoObjeto = "6"
	TarifaExento   = "7"
)

// CodigoPorcentajeIVA mapea la tarifa porcentual a su código de tabla.
// Tarifas no catalogadas caen en el código de 12% (tarifa general).
func CodigoPorcentajeIVA(tarifa int) string {
	switch tarifa {
	case 0:
		return TarifaIVA0
	case 12:
		return TarifaIVA12
	case 14:
		return TarifaIVA14
	default:
		return TarifaIVA12
	}
}

// =============================================================================
// Otros valores fijos del esquema factura v1.1.0
// =============================================================================

const (
	VersionFactura = "1.1.0"
	MonedaDolar    = "DOLAR"
)
