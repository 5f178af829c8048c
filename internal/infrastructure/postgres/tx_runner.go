package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/facturacion"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

var _ facturacion.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunFacturacion inicia una transacción con los repos de numeración y factura
// atados a la tx, ejecuta fn y hace Commit o Rollback. La asignación del
// secuencial y el insert de la factura quedan en la misma transacción: si el
// insert falla, el incremento se revierte junto con él.
func (r *TxRunner) RunFacturacion(ctx context.Context, fn func(
	facturaRepo repository.FacturaRepository,
	puntoEmisionRepo repository.PuntoEmisionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	facturaRepo := NewFacturaRepository(tx)
	puntoEmisionRepo := NewPuntoEmisionRepository(tx)

	if err := fn(facturaRepo, puntoEmisionRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
