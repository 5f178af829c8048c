package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
)

var _ repository.FacturaRepository = (*FacturaRepo)(nil)

// FacturaRepo implementación de FacturaRepository (usable con pool o tx).
type FacturaRepo struct {
	q Querier
}

// NewFacturaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFacturaRepository(q Querier) *FacturaRepo {
	return &FacturaRepo{q: q}
}

const facturaColumnas = `
	id, venta_id, establecimiento, punto_emision, secuencial,
	ambiente, tipo_documento, tipo_emision,
	emisor_ruc, emisor_razon_social, emisor_nombre_comercial,
	emisor_dir_matriz, emisor_dir_establecimiento, emisor_obligado_contabilidad,
	comprador_identificacion, comprador_tipo_identificacion, comprador_razon_social,
	comprador_direccion, comprador_email, comprador_telefono,
	subtotal, descuento, iva, total, tarifa_iva,
	estado, fecha_emision, clave_acceso, xml_documento, xml_autorizado,
	numero_autorizacion, fecha_autorizacion, mensaje, errores,
	created_at, updated_at`

// Create persiste la factura recién creada (estado DRAFT).
// La columna venta_id tiene UNIQUE: una venta no puede facturarse dos veces.
func (r *FacturaRepo) Create(ctx context.Context, f *entity.Factura) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	errores, err := marshalErrores(f.Errores)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO facturas (` + facturaColumnas + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
		        $29, $30, $31, $32, $33, $34, $35, $36)`
	_, err = r.q.Exec(ctx, query,
		f.ID, f.VentaID, f.Establecimiento, f.PuntoEmision, f.Secuencial,
		f.Ambiente, f.TipoDocumento, f.TipoEmision,
		f.EmisorRUC, f.EmisorRazonSocial, nullIfEmpty(f.EmisorNombreComercial),
		f.EmisorDirMatriz, nullIfEmpty(f.EmisorDirEstablecimiento), f.EmisorObligadoContabilidad,
		f.CompradorIdentificacion, f.CompradorTipoIdentificacion, f.CompradorRazonSocial,
		nullIfEmpty(f.CompradorDireccion), nullIfEmpty(f.CompradorEmail), nullIfEmpty(f.CompradorTelefono),
		f.Subtotal, f.Descuento, f.IVA, f.Total, f.TarifaIVA,
		string(f.Estado), f.FechaEmision, nullIfEmpty(f.ClaveAcceso),
		nullIfEmpty(f.XMLDocumento), nullIfEmpty(f.XMLAutorizado),
		nullIfEmpty(f.NumeroAutorizacion), f.FechaAutorizacion, nullIfEmpty(f.Mensaje), errores,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVentaFacturada
		}
		return fmt.Errorf("insert factura: %w", err)
	}
	return nil
}

// Update persiste los campos del ciclo de vida SRI.
func (r *FacturaRepo) Update(ctx context.Context, f *entity.Factura) error {
	f.UpdatedAt = time.Now()
	errores, err := marshalErrores(f.Errores)
	if err != nil {
		return err
	}
	query := `
		UPDATE facturas
		SET estado              = $2,
		    clave_acceso        = COALESCE($3, clave_acceso),
		    xml_documento       = COALESCE($4, xml_documento),
		    xml_autorizado      = COALESCE($5, xml_autorizado),
		    numero_autorizacion = COALESCE($6, numero_autorizacion),
		    fecha_autorizacion  = COALESCE($7, fecha_autorizacion),
		    mensaje             = $8,
		    errores             = $9,
		    updated_at          = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		f.ID,
		string(f.Estado),
		nullIfEmpty(f.ClaveAcceso),
		nullIfEmpty(f.XMLDocumento),
		nullIfEmpty(f.XMLAutorizado),
		nullIfEmpty(f.NumeroAutorizacion),
		f.FechaAutorizacion,
		f.Mensaje,
		errores,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update factura: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *FacturaRepo) GetByID(ctx context.Context, id string) (*entity.Factura, error) {
	query := `SELECT ` + facturaColumnas + ` FROM facturas WHERE id = $1`
	return r.scanFactura(r.q.QueryRow(ctx, query, id))
}

// GetByVentaID devuelve la factura de una venta, o nil si no está facturada.
func (r *FacturaRepo) GetByVentaID(ctx context.Context, ventaID string) (*entity.Factura, error) {
	query := `SELECT ` + facturaColumnas + ` FROM facturas WHERE venta_id = $1`
	f, err := r.scanFactura(r.q.QueryRow(ctx, query, ventaID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return f, err
}

// GetEstado devuelve solo los campos de estado (consulta ligera para polling).
func (r *FacturaRepo) GetEstado(ctx context.Context, id string) (*entity.Factura, error) {
	query := `
		SELECT id, estado, clave_acceso, numero_autorizacion, fecha_autorizacion, mensaje, errores
		FROM facturas WHERE id = $1`
	var f entity.Factura
	var estado string
	var claveAcceso, numeroAutorizacion, mensaje *string
	var erroresRaw []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&f.ID, &estado, &claveAcceso, &numeroAutorizacion, &f.FechaAutorizacion, &mensaje, &erroresRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get estado factura: %w", err)
	}
	f.Estado = entity.Estado(estado)
	f.ClaveAcceso = derefStr(claveAcceso)
	f.NumeroAutorizacion = derefStr(numeroAutorizacion)
	f.Mensaje = derefStr(mensaje)
	if f.Errores, err = unmarshalErrores(erroresRaw); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FacturaRepo) scanFactura(row pgx.Row) (*entity.Factura, error) {
	var f entity.Factura
	var estado string
	var nombreComercial, dirEstablecimiento *string
	var direccion, email, telefono *string
	var claveAcceso, xmlDocumento, xmlAutorizado, numeroAutorizacion, mensaje *string
	var erroresRaw []byte
	err := row.Scan(
		&f.ID, &f.VentaID, &f.Establecimiento, &f.PuntoEmision, &f.Secuencial,
		&f.Ambiente, &f.TipoDocumento, &f.TipoEmision,
		&f.EmisorRUC, &f.EmisorRazonSocial, &nombreComercial,
		&f.EmisorDirMatriz, &dirEstablecimiento, &f.EmisorObligadoContabilidad,
		&f.CompradorIdentificacion, &f.CompradorTipoIdentificacion, &f.CompradorRazonSocial,
		&direccion, &email, &telefono,
		&f.Subtotal, &f.Descuento, &f.IVA, &f.Total, &f.TarifaIVA,
		&estado, &f.FechaEmision, &claveAcceso, &xmlDocumento, &xmlAutorizado,
		&numeroAutorizacion, &f.FechaAutorizacion, &mensaje, &erroresRaw,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get factura: %w", err)
	}
	f.Estado = entity.Estado(estado)
	f.EmisorNombreComercial = derefStr(nombreComercial)
	f.EmisorDirEstablecimiento = derefStr(dirEstablecimiento)
	f.CompradorDireccion = derefStr(direccion)
	f.CompradorEmail = derefStr(email)
	f.CompradorTelefono = derefStr(telefono)
	f.ClaveAcceso = derefStr(claveAcceso)
	f.XMLDocumento = derefStr(xmlDocumento)
	f.XMLAutorizado = derefStr(xmlAutorizado)
	f.NumeroAutorizacion = derefStr(numeroAutorizacion)
	f.Mensaje = derefStr(mensaje)
	if f.Errores, err = unmarshalErrores(erroresRaw); err != nil {
		return nil, err
	}
	return &f, nil
}

// marshalErrores serializa los motivos de rechazo a JSONB ([] si no hay).
func marshalErrores(errores []entity.ErrorSRI) ([]byte, error) {
	if errores == nil {
		errores = []entity.ErrorSRI{}
	}
	b, err := json.Marshal(errores)
	if err != nil {
		return nil, fmt.Errorf("serializar errores SRI: %w", err)
	}
	return b, nil
}

func unmarshalErrores(raw []byte) ([]entity.ErrorSRI, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var errores []entity.ErrorSRI
	if err := json.Unmarshal(raw, &errores); err != nil {
		return nil, fmt.Errorf("deserializar errores SRI: %w", err)
	}
	if len(errores) == 0 {
		return nil, nil
	}
	return errores, nil
}
