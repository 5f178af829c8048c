package facturacion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
	domsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/config"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/logger"
	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
	"github.com/shopspring/decimal"
)

// EmitirFacturaUseCase crea la factura de una venta completada:
//
//	venta → snapshots (emisor, comprador) → secuencial → totales → DRAFT en BD
//
// y dispara el procesamiento SRI en segundo plano. La venta nunca se modifica
// ni se revierte: si la autorización falla después, la factura queda REJECTED
// y puede reintentarse.
type EmitirFacturaUseCase struct {
	ventaRepo   repository.VentaRepository
	clienteRepo repository.ClienteRepository
	emisorRepo  repository.EmisorRepository
	facturaRepo repository.FacturaRepository
	txRunner    TxRunner
	orquestador *OrquestadorSRI
	cfg         config.SRIConfig
	log         *logger.Logger
}

// NewEmitirFacturaUseCase construye el caso de uso.
func NewEmitirFacturaUseCase(
	ventaRepo repository.VentaRepository,
	clienteRepo repository.ClienteRepository,
	emisorRepo repository.EmisorRepository,
	facturaRepo repository.FacturaRepository,
	txRunner TxRunner,
	orquestador *OrquestadorSRI,
	cfg config.SRIConfig,
	log *logger.Logger,
) *EmitirFacturaUseCase {
	return &EmitirFacturaUseCase{
		ventaRepo:   ventaRepo,
		clienteRepo: clienteRepo,
		emisorRepo:  emisorRepo,
		facturaRepo: facturaRepo,
		txRunner:    txRunner,
		orquestador: orquestador,
		cfg:         cfg,
		log:         log,
	}
}

// Execute emite la factura de la venta dada. Devuelve la factura en DRAFT;
// el resultado de la autorización llega después por el orquestador.
func (uc *EmitirFacturaUseCase) Execute(ctx context.Context, ventaID string) (*entity.Factura, error) {
	venta, err := uc.ventaRepo.GetByID(ctx, ventaID)
	if err != nil {
		return nil, fmt.Errorf("obtener venta %s: %w", ventaID, err)
	}

	// Guardia 1:1: una venta no se factura dos veces. El UNIQUE de venta_id
	// respalda esta verificación contra emisiones concurrentes.
	if existente, err := uc.facturaRepo.GetByVentaID(ctx, ventaID); err != nil {
		return nil, fmt.Errorf("verificar factura existente: %w", err)
	} else if existente != nil {
		return existente, domain.ErrVentaFacturada
	}

	detalles, err := uc.ventaRepo.GetDetalles(ctx, ventaID)
	if err != nil {
		return nil, fmt.Errorf("obtener detalles de venta: %w", err)
	}
	if len(detalles) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}

	cliente, err := uc.clienteRepo.GetByID(ctx, venta.ClienteID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente %s: %w", venta.ClienteID, err)
	}

	emisor, err := uc.resolverEmisor(ctx)
	if err != nil {
		return nil, err
	}

	tot := domsri.CalcularTotales(detalles)

	factura := &entity.Factura{
		VentaID:         ventaID,
		Establecimiento: uc.cfg.Emisor.Establecimiento,
		PuntoEmision:    uc.cfg.Emisor.PuntoEmision,
		Ambiente:        uc.cfg.Ambiente,
		TipoDocumento:   pkgsri.DocFactura,
		TipoEmision:     pkgsri.EmisionNormal,

		EmisorRUC:                  emisor.RUC,
		EmisorRazonSocial:          emisor.RazonSocial,
		EmisorNombreComercial:      emisor.NombreComercial,
		EmisorDirMatriz:            emisor.DirMatriz,
		EmisorDirEstablecimiento:   emisor.DirEstablecimiento,
		EmisorObligadoContabilidad: emisor.ObligadoContabilidad,

		CompradorIdentificacion:     cliente.Identificacion,
		CompradorTipoIdentificacion: pkgsri.TipoIdentificacion(cliente.Identificacion),
		CompradorRazonSocial:        cliente.RazonSocial,
		CompradorDireccion:          cliente.Direccion,
		CompradorEmail:              cliente.Email,
		CompradorTelefono:           cliente.Telefono,

		Subtotal:  tot.Subtotal,
		Descuento: tot.Descuento,
		IVA:       tot.IVA,
		Total:     tot.Total,
		TarifaIVA: tarifaPredominante(detalles),

		Estado:       entity.EstadoDraft,
		FechaEmision: time.Now(),
	}

	// Secuencial e insert en la misma transacción: si el insert falla, el
	// incremento se revierte. Un secuencial confirmado jamás se reutiliza.
	err = uc.txRunner.RunFacturacion(ctx, func(
		facturaRepo repository.FacturaRepository,
		puntoEmisionRepo repository.PuntoEmisionRepository,
	) error {
		secuencial, err := puntoEmisionRepo.SiguienteSecuencial(ctx, factura.Establecimiento, factura.PuntoEmision)
		if err != nil {
			return err
		}
		factura.Secuencial = secuencial
		return facturaRepo.Create(ctx, factura)
	})
	if err != nil {
		if errors.Is(err, domain.ErrVentaFacturada) {
			// Perdimos la carrera contra otra emisión de la misma venta.
			if existente, gErr := uc.facturaRepo.GetByVentaID(ctx, ventaID); gErr == nil && existente != nil {
				return existente, domain.ErrVentaFacturada
			}
		}
		return nil, err
	}

	uc.log.Info().
		Str("factura_id", factura.ID).
		Str("venta_id", ventaID).
		Str("serie", factura.Serie()).
		Int64("secuencial", factura.Secuencial).
		Msg("factura creada en DRAFT, disparando proceso SRI")

	uc.orquestador.ProcesarAsync(factura.ID)
	return factura, nil
}

// resolverEmisor toma el override de configuración si está definido y si no
// la fila de BD. Sin ninguno de los dos no se puede emitir.
func (uc *EmitirFacturaUseCase) resolverEmisor(ctx context.Context) (*entity.Emisor, error) {
	if uc.cfg.Emisor.Definido() {
		return &entity.Emisor{
			RUC:                  uc.cfg.Emisor.RUC,
			RazonSocial:          uc.cfg.Emisor.RazonSocial,
			NombreComercial:      uc.cfg.Emisor.NombreComercial,
			DirMatriz:            uc.cfg.Emisor.DirMatriz,
			DirEstablecimiento:   uc.cfg.Emisor.DirEstablecimiento,
			ObligadoContabilidad: uc.cfg.Emisor.ObligadoContabilidad,
			Ambiente:             uc.cfg.Ambiente,
		}, nil
	}
	emisor, err := uc.emisorRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: emisor no configurado (BD vacía y sin SRI_EMISOR_RUC)", domain.ErrConfiguracion)
		}
		return nil, fmt.Errorf("obtener emisor: %w", err)
	}
	return emisor, nil
}

// tarifaPredominante devuelve la tarifa IVA más alta entre las líneas; es la
// que se publica como porcentaje de la factura.
func tarifaPredominante(detalles []*entity.VentaDetalle) decimal.Decimal {
	tarifa := decimal.Zero
	for _, d := range detalles {
		if d.TarifaIVA.GreaterThan(tarifa) {
			tarifa = d.TarifaIVA
		}
	}
	return tarifa
}
