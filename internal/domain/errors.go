package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrConflict       = errors.New("conflicto con el estado actual")
	ErrVentaFacturada = errors.New("la venta ya tiene factura emitida")
	ErrConfiguracion  = errors.New("configuración incompleta o inválida")
)
