package repository

import (
	"context"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// VentaRepository es el puerto de SOLO LECTURA hacia las ventas: el núcleo de
// facturación consume ventas completadas pero nunca las modifica.
type VentaRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Venta, error)
	GetDetalles(ctx context.Context, ventaID string) ([]*entity.VentaDetalle, error)
}

// ClienteRepository puerto de lectura de clientes (para el snapshot del comprador).
type ClienteRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Cliente, error)
}
