package entity

import "time"

// Cliente representa un cliente del lavadero. Al facturar se toma un snapshot
// de estos campos en la Factura; ediciones posteriores no afectan facturas emitidas.
type Cliente struct {
	ID             string
	Identificacion string // cédula (10), RUC (13) o pasaporte
	RazonSocial    string
	Direccion      string
	Email          string
	Telefono       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
