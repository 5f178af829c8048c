package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

var _ repository.ClienteRepository = (*ClienteRepo)(nil)

// ClienteRepo lectura de clientes para el snapshot del comprador.
type ClienteRepo struct {
	q Querier
}

// NewClienteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClienteRepository(q Querier) *ClienteRepo {
	return &ClienteRepo{q: q}
}

// GetByID obtiene un cliente por ID.
func (r *ClienteRepo) GetByID(ctx context.Context, id string) (*entity.Cliente, error) {
	query := `
		SELECT id, identificacion, razon_social, direccion, email, telefono, created_at, updated_at
		FROM clientes WHERE id = $1`
	var c entity.Cliente
	var direccion, email, telefono *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Identificacion, &c.RazonSocial, &direccion, &email, &telefono,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cliente: %w", err)
	}
	c.Direccion = derefStr(direccion)
	c.Email = derefStr(email)
	c.Telefono = derefStr(telefono)
	return &c, nil
}
