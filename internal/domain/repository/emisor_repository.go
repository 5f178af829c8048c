package repository

import (
	"context"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// EmisorRepository puerto de persistencia de la configuración del emisor.
type EmisorRepository interface {
	// Get devuelve el emisor configurado (single-tenant: una sola fila).
	Get(ctx context.Context) (*entity.Emisor, error)
	Save(ctx context.Context, e *entity.Emisor) error
}

// PuntoEmisionRepository asigna secuenciales por punto de emisión.
type PuntoEmisionRepository interface {
	// SiguienteSecuencial incrementa y devuelve el secuencial del punto de
	// emisión dado, serializado con lock de fila: dos emisiones concurrentes
	// sobre el mismo punto jamás reciben el mismo número.
	SiguienteSecuencial(ctx context.Context, establecimiento, puntoEmision string) (int64, error)
	Get(ctx context.Context, establecimiento, puntoEmision string) (*entity.PuntoEmision, error)
	Create(ctx context.Context, p *entity.PuntoEmision) error
}
