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

var _ repository.VentaRepository = (*VentaRepo)(nil)

// VentaRepo lectura de ventas completadas. Este subsistema nunca escribe ventas.
type VentaRepo struct {
	q Querier
}

// NewVentaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVentaRepository(q Querier) *VentaRepo {
	return &VentaRepo{q: q}
}

// GetByID obtiene la cabecera de la venta.
func (r *VentaRepo) GetByID(ctx context.Context, id string) (*entity.Venta, error) {
	query := `
		SELECT id, cliente_id, fecha, subtotal, descuento, iva, total, created_at, updated_at
		FROM ventas WHERE id = $1`
	var v entity.Venta
	err := r.q.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ClienteID, &v.Fecha, &v.Subtotal, &v.Descuento, &v.IVA, &v.Total,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get venta: %w", err)
	}
	return &v, nil
}

// GetDetalles obtiene las líneas de la venta en orden de inserción.
func (r *VentaRepo) GetDetalles(ctx context.Context, ventaID string) ([]*entity.VentaDetalle, error) {
	query := `
		SELECT id, venta_id, descripcion, codigo_principal, cantidad, precio_unitario, descuento, tarifa_iva
		FROM venta_detalles WHERE venta_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, ventaID)
	if err != nil {
		return nil, fmt.Errorf("listar detalles de venta: %w", err)
	}
	defer rows.Close()

	var detalles []*entity.VentaDetalle
	for rows.Next() {
		var d entity.VentaDetalle
		var codigo *string
		if err := rows.Scan(&d.ID, &d.VentaID, &d.Descripcion, &codigo,
			&d.Cantidad, &d.PrecioUnitario, &d.Descuento, &d.TarifaIVA); err != nil {
			return nil, fmt.Errorf("scan detalle de venta: %w", err)
		}
		d.CodigoPrincipal = derefStr(codigo)
		detalles = append(detalles, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar detalles de venta: %w", err)
	}
	return detalles, nil
}
