package entity

import "fmt"

// Estado es el estado del ciclo de vida de una factura electrónica frente al SRI.
type Estado string

const (
	// EstadoDraft factura creada, secuencial reservado, aún sin enviar.
	EstadoDraft Estado = "DRAFT"
	// EstadoSubmitted recibida por el SRI (recepción OK), autorización pendiente.
	EstadoSubmitted Estado = "SUBMITTED"
	// EstadoAuthorized autorizada por el SRI (terminal de éxito).
	EstadoAuthorized Estado = "AUTHORIZED"
	// EstadoRejected devuelta o no autorizada; puede reprocesarse.
	EstadoRejected Estado = "REJECTED"
	// EstadoCancelled anulada por acción explícita del negocio (terminal).
	EstadoCancelled Estado = "CANCELLED"
)

// transiciones es la tabla de transiciones válidas del ciclo de vida.
// Toda transición fuera de la tabla es ilegal; en particular una factura
// AUTHORIZED solo puede pasar a CANCELLED, nunca reenviarse.
var transiciones = map[Estado][]Estado{
	EstadoDraft:      {EstadoSubmitted, EstadoRejected},
	EstadoSubmitted:  {EstadoAuthorized, EstadoRejected},
	EstadoRejected:   {EstadoDraft},
	EstadoAuthorized: {EstadoCancelled},
	EstadoCancelled:  {},
}

// Valida indica si e es un estado conocido.
func (e Estado) Valida() bool {
	_, ok := transiciones[e]
	return ok
}

// Terminal indica si el estado no admite más procesamiento automático.
// REJECTED no es terminal: admite el reset explícito a DRAFT.
func (e Estado) Terminal() bool {
	return e == EstadoAuthorized || e == EstadoCancelled
}

// PuedeTransicionarA consulta la tabla de transiciones.
func (e Estado) PuedeTransicionarA(destino Estado) bool {
	for _, d := range transiciones[e] {
		if d == destino {
			return true
		}
	}
	return false
}

// ErrTransicionInvalida señala un intento de transición fuera de la tabla.
type ErrTransicionInvalida struct {
	Desde Estado
	Hacia Estado
}

func (e *ErrTransicionInvalida) Error() string {
	return fmt.Sprintf("transición de estado inválida: %s → %s", e.Desde, e.Hacia)
}
