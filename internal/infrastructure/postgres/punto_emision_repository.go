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

var _ repository.PuntoEmisionRepository = (*PuntoEmisionRepo)(nil)

// PuntoEmisionRepo administra la numeración serializada por punto de emisión.
type PuntoEmisionRepo struct {
	q Querier
}

// NewPuntoEmisionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPuntoEmisionRepository(q Querier) *PuntoEmisionRepo {
	return &PuntoEmisionRepo{q: q}
}

// SiguienteSecuencial incrementa y devuelve el secuencial bajo lock de fila.
// Dos emisiones concurrentes sobre el mismo punto quedan serializadas por el
// UPDATE: la segunda espera el commit de la primera y recibe el número siguiente.
// Los secuenciales asignados nunca se reutilizan, aunque la emisión falle luego.
func (r *PuntoEmisionRepo) SiguienteSecuencial(ctx context.Context, establecimiento, puntoEmision string) (int64, error) {
	query := `
		UPDATE puntos_emision
		SET secuencial = secuencial + 1, updated_at = $3
		WHERE establecimiento = $1 AND punto_emision = $2
		RETURNING secuencial`
	var secuencial int64
	err := r.q.QueryRow(ctx, query, establecimiento, puntoEmision, time.Now()).Scan(&secuencial)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("punto de emisión %s-%s no registrado: %w", establecimiento, puntoEmision, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("asignar secuencial: %w", err)
	}
	return secuencial, nil
}

// Get obtiene la fila del punto de emisión.
func (r *PuntoEmisionRepo) Get(ctx context.Context, establecimiento, puntoEmision string) (*entity.PuntoEmision, error) {
	query := `
		SELECT id, establecimiento, punto_emision, secuencial, created_at, updated_at
		FROM puntos_emision
		WHERE establecimiento = $1 AND punto_emision = $2`
	var p entity.PuntoEmision
	err := r.q.QueryRow(ctx, query, establecimiento, puntoEmision).Scan(
		&p.ID, &p.Establecimiento, &p.PuntoEmision, &p.Secuencial, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get punto de emisión: %w", err)
	}
	return &p, nil
}

// Create registra un punto de emisión nuevo con su secuencial inicial.
func (r *PuntoEmisionRepo) Create(ctx context.Context, p *entity.PuntoEmision) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	query := `
		INSERT INTO puntos_emision (id, establecimiento, punto_emision, secuencial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, p.ID, p.Establecimiento, p.PuntoEmision, p.Secuencial, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert punto de emisión: %w", err)
	}
	return nil
}
