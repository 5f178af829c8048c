package entity

import "time"

// Emisor es la configuración fiscal del negocio emisor de comprobantes.
// De aquí se toma el snapshot de emisor al crear cada factura.
type Emisor struct {
	ID                   string
	RUC                  string
	RazonSocial          string
	NombreComercial      string
	DirMatriz            string
	DirEstablecimiento   string
	ObligadoContabilidad bool
	Ambiente             string // ambiente por defecto para emisión ("1" o "2")
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PuntoEmision es la fila que serializa la numeración por punto de emisión.
// El secuencial se incrementa bajo lock de fila; la tripleta
// (establecimiento, punto_emision, secuencial) tiene constraint UNIQUE.
type PuntoEmision struct {
	ID              string
	Establecimiento string // "001"
	PuntoEmision    string // "001"
	Secuencial      int64  // último secuencial asignado
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
