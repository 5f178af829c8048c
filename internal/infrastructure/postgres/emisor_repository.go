package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

var _ repository.EmisorRepository = (*EmisorRepo)(nil)

// EmisorRepo persistencia de la configuración del emisor (single-tenant: una fila).
type EmisorRepo struct {
	q Querier
}

// NewEmisorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmisorRepository(q Querier) *EmisorRepo {
	return &EmisorRepo{q: q}
}

// Get devuelve el emisor configurado.
func (r *EmisorRepo) Get(ctx context.Context) (*entity.Emisor, error) {
	query := `
		SELECT id, ruc, razon_social, nombre_comercial, dir_matriz, dir_establecimiento,
		       obligado_contabilidad, ambiente, created_at, updated_at
		FROM emisores LIMIT 1`
	var e entity.Emisor
	var nombreComercial, dirEstablecimiento *string
	err := r.q.QueryRow(ctx, query).Scan(
		&e.ID, &e.RUC, &e.RazonSocial, &nombreComercial, &e.DirMatriz, &dirEstablecimiento,
		&e.ObligadoContabilidad, &e.Ambiente, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get emisor: %w", err)
	}
	e.NombreComercial = derefStr(nombreComercial)
	e.DirEstablecimiento = derefStr(dirEstablecimiento)
	return &e, nil
}

// Save crea o actualiza la fila del emisor (upsert por RUC).
func (r *EmisorRepo) Save(ctx context.Context, e *entity.Emisor) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
		e.CreatedAt = time.Now()
	}
	e.UpdatedAt = time.Now()
	query := `
		INSERT INTO emisores (id, ruc, razon_social, nombre_comercial, dir_matriz,
		                      dir_establecimiento, obligado_contabilidad, ambiente, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ruc) DO UPDATE SET
		    razon_social          = EXCLUDED.razon_social,
		    nombre_comercial      = EXCLUDED.nombre_comercial,
		    dir_matriz            = EXCLUDED.dir_matriz,
		    dir_establecimiento   = EXCLUDED.dir_establecimiento,
		    obligado_contabilidad = EXCLUDED.obligado_contabilidad,
		    ambiente              = EXCLUDED.ambiente,
		    updated_at            = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.RUC, e.RazonSocial, nullIfEmpty(e.NombreComercial), e.DirMatriz,
		nullIfEmpty(e.DirEstablecimiento), e.ObligadoContabilidad, e.Ambiente,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save emisor: %w", err)
	}
	return nil
}
