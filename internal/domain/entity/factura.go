package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Factura representa la factura electrónica emitida sobre una venta.
//
// La tripleta (Establecimiento, PuntoEmision, Secuencial) es única y
// monótona por punto de emisión. Los datos del emisor y del comprador son
// snapshots tomados al crear la factura: el SRI exige que los valores
// firmados no cambien aunque el cliente o el emisor se editen después.
type Factura struct {
	ID      string
	VentaID string // 1:1 con la venta (UNIQUE en BD)

	// Identidad del comprobante
	Establecimiento string // "001"
	PuntoEmision    string // "001"
	Secuencial      int64  // asignado bajo lock de fila, nunca reutilizado

	// Clasificación
	Ambiente      string // "1" pruebas, "2" producción
	TipoDocumento string // "01" factura
	TipoEmision   string // "1" normal

	// Snapshot del emisor
	EmisorRUC                  string
	EmisorRazonSocial          string
	EmisorNombreComercial      string
	EmisorDirMatriz            string
	EmisorDirEstablecimiento   string
	EmisorObligadoContabilidad bool

	// Snapshot del comprador
	CompradorIdentificacion     string
	CompradorTipoIdentificacion string // derivado de la forma del identificador
	CompradorRazonSocial        string
	CompradorDireccion          string
	CompradorEmail              string
	CompradorTelefono           string

	// Montos (redondeo a 2 decimales)
	Subtotal  decimal.Decimal
	Descuento decimal.Decimal
	IVA       decimal.Decimal
	Total     decimal.Decimal
	TarifaIVA decimal.Decimal // porcentaje aplicado (ej: 12)

	// Ciclo de vida
	Estado             Estado
	FechaEmision       time.Time
	ClaveAcceso        string // 49 dígitos
	XMLDocumento       string // XML de trabajo (sin firma o firmado)
	XMLAutorizado      string // copia autorizada devuelta por el SRI
	NumeroAutorizacion string
	FechaAutorizacion  *time.Time
	Mensaje            string     // último mensaje de estado
	Errores            []ErrorSRI // motivos de rechazo estructurados

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrorSRI es un motivo de rechazo o mensaje de validación del SRI.
// Tipo "SISTEMA" marca fallas de transporte/protocolo para que el operador
// las distinga de un rechazo tributario genuino.
type ErrorSRI struct {
	Identificador string `json:"identificador"`
	Mensaje       string `json:"mensaje"`
	InfoAdicional string `json:"informacion_adicional,omitempty"`
	Tipo          string `json:"tipo"` // ERROR, ADVERTENCIA, SISTEMA
}

// TipoErrorSistema marca errores de transporte/protocolo, no rechazos del SRI.
const TipoErrorSistema = "SISTEMA"

// Transicionar mueve la factura a un nuevo estado validando la tabla de
// transiciones. No persiste; el orquestador es quien guarda.
func (f *Factura) Transicionar(destino Estado) error {
	if !f.Estado.PuedeTransicionarA(destino) {
		return &ErrTransicionInvalida{Desde: f.Estado, Hacia: destino}
	}
	f.Estado = destino
	return nil
}

// Serie devuelve "estab-ptoEmi" (ej: "001-001").
func (f *Factura) Serie() string {
	return f.Establecimiento + "-" + f.PuntoEmision
}
