package sri

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// SimuladorSRI implementa AutorizadorSRI sin red: autoriza casi siempre y
// rechaza ocasionalmente con un motivo sintético, para desarrollo y pruebas.
type SimuladorSRI struct {
	mu  sync.Mutex
	rng *rand.Rand

	// ForzarEstado, si no es vacío, fija el resultado de ConsultarAutorizacion
	// (AUTORIZADO, NO AUTORIZADO o EN PROCESO). Útil en tests.
	ForzarEstado string
	// ProbabilidadRechazo en [0,1); por defecto 0.05.
	ProbabilidadRechazo float64

	ultimoXML []byte
}

// NewSimuladorSRI crea el simulador con semilla aleatoria.
func NewSimuladorSRI() *SimuladorSRI {
	return &SimuladorSRI{
		rng:                 rand.New(rand.NewSource(time.Now().UnixNano())),
		ProbabilidadRechazo: 0.05,
	}
}

// EnviarComprobante siempre recibe el comprobante; el rechazo se decide en
// la fase de autorización, como hace el SRI con los errores de contenido.
func (s *SimuladorSRI) EnviarComprobante(_ context.Context, xmlFirmado []byte) (*ResultadoRecepcion, error) {
	if len(xmlFirmado) == 0 {
		return &ResultadoRecepcion{
			Estado: RecepcionDevuelta,
			Errores: []entity.ErrorSRI{{
				Identificador: "35",
				Mensaje:       "ARCHIVO NO CUMPLE ESTRUCTURA XML",
				Tipo:          "ERROR",
			}},
		}, nil
	}
	s.mu.Lock()
	s.ultimoXML = xmlFirmado
	s.mu.Unlock()
	return &ResultadoRecepcion{Estado: RecepcionRecibida}, nil
}

// ConsultarAutorizacion decide el desenlace simulado.
func (s *SimuladorSRI) ConsultarAutorizacion(_ context.Context, claveAcceso string) (*ResultadoAutorizacion, error) {
	s.mu.Lock()
	estado := s.ForzarEstado
	if estado == "" {
		if s.rng.Float64() < s.ProbabilidadRechazo {
			estado = AutorizacionNoAutorizado
		} else {
			estado = AutorizacionAutorizado
		}
	}
	xmlAutorizado := string(s.ultimoXML)
	s.mu.Unlock()

	switch estado {
	case AutorizacionAutorizado:
		ahora := time.Now()
		return &ResultadoAutorizacion{
			Estado:             AutorizacionAutorizado,
			NumeroAutorizacion: claveAcceso, // en modo offline el SRI autoriza con la propia clave
			FechaAutorizacion:  &ahora,
			XMLAutorizado:      xmlAutorizado,
		}, nil
	case AutorizacionNoAutorizado:
		return &ResultadoAutorizacion{
			Estado: AutorizacionNoAutorizado,
			Errores: []entity.ErrorSRI{{
				Identificador: "65",
				Mensaje:       "ERROR SECUENCIAL REGISTRADO",
				InfoAdicional: fmt.Sprintf("clave de acceso %s rechazada por el simulador", claveAcceso),
				Tipo:          "ERROR",
			}},
		}, nil
	default:
		return &ResultadoAutorizacion{Estado: AutorizacionEnProceso}, nil
	}
}

var _ AutorizadorSRI = (*SimuladorSRI)(nil)
