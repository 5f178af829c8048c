package facturacion_test

// Dobles en memoria de los puertos de persistencia y del autorizador, para
// ejercitar el caso de uso y el orquestador sin PostgreSQL ni red.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/facturacion"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
	domsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
	infrasri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri/firmador"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/config"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/logger"
)

// ── factura ───────────────────────────────────────────────────────────────────

type facturaRepoFake struct {
	mu       sync.Mutex
	porID    map[string]*entity.Factura
	porVenta map[string]string
	contador int
}

func newFacturaRepoFake() *facturaRepoFake {
	return &facturaRepoFake{
		porID:    make(map[string]*entity.Factura),
		porVenta: make(map[string]string),
	}
}

func clonarFactura(f *entity.Factura) *entity.Factura {
	c := *f
	c.Errores = append([]entity.ErrorSRI(nil), f.Errores...)
	return &c
}

func (r *facturaRepoFake) Create(_ context.Context, f *entity.Factura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, existe := r.porVenta[f.VentaID]; existe {
		return domain.ErrVentaFacturada
	}
	if f.ID == "" {
		r.contador++
		f.ID = fmt.Sprintf("FAC-%d", r.contador)
	}
	r.porID[f.ID] = clonarFactura(f)
	r.porVenta[f.VentaID] = f.ID
	return nil
}

func (r *facturaRepoFake) Update(_ context.Context, f *entity.Factura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, existe := r.porID[f.ID]; !existe {
		return domain.ErrNotFound
	}
	r.porID[f.ID] = clonarFactura(f)
	return nil
}

func (r *facturaRepoFake) GetByID(_ context.Context, id string) (*entity.Factura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, existe := r.porID[id]
	if !existe {
		return nil, domain.ErrNotFound
	}
	return clonarFactura(f), nil
}

func (r *facturaRepoFake) GetByVentaID(_ context.Context, ventaID string) (*entity.Factura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, existe := r.porVenta[ventaID]
	if !existe {
		return nil, nil
	}
	return clonarFactura(r.porID[id]), nil
}

func (r *facturaRepoFake) GetEstado(ctx context.Context, id string) (*entity.Factura, error) {
	return r.GetByID(ctx, id)
}

// ── venta y cliente ───────────────────────────────────────────────────────────

type ventaRepoFake struct {
	ventas   map[string]*entity.Venta
	detalles map[string][]*entity.VentaDetalle
}

func (r *ventaRepoFake) GetByID(_ context.Context, id string) (*entity.Venta, error) {
	v, existe := r.ventas[id]
	if !existe {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (r *ventaRepoFake) GetDetalles(_ context.Context, ventaID string) ([]*entity.VentaDetalle, error) {
	return r.detalles[ventaID], nil
}

type clienteRepoFake struct {
	clientes map[string]*entity.Cliente
}

func (r *clienteRepoFake) GetByID(_ context.Context, id string) (*entity.Cliente, error) {
	c, existe := r.clientes[id]
	if !existe {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// ── emisor y numeración ───────────────────────────────────────────────────────

type emisorRepoFake struct {
	emisor *entity.Emisor
}

func (r *emisorRepoFake) Get(_ context.Context) (*entity.Emisor, error) {
	if r.emisor == nil {
		return nil, domain.ErrNotFound
	}
	return r.emisor, nil
}

func (r *emisorRepoFake) Save(_ context.Context, e *entity.Emisor) error {
	r.emisor = e
	return nil
}

type puntoEmisionRepoFake struct {
	mu         sync.Mutex
	secuencial int64
}

func (r *puntoEmisionRepoFake) SiguienteSecuencial(_ context.Context, _, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.secuencial++
	return r.secuencial, nil
}

func (r *puntoEmisionRepoFake) Get(_ context.Context, estab, pto string) (*entity.PuntoEmision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &entity.PuntoEmision{Establecimiento: estab, PuntoEmision: pto, Secuencial: r.secuencial}, nil
}

func (r *puntoEmisionRepoFake) Create(_ context.Context, _ *entity.PuntoEmision) error {
	return nil
}

type txRunnerFake struct {
	facturas *facturaRepoFake
	puntos   *puntoEmisionRepoFake
}

func (t *txRunnerFake) RunFacturacion(ctx context.Context, fn func(
	facturaRepo repository.FacturaRepository,
	puntoEmisionRepo repository.PuntoEmisionRepository,
) error) error {
	return fn(t.facturas, t.puntos)
}

// ── autorizador programable ───────────────────────────────────────────────────

type autorizadorFake struct {
	enviar    func(ctx context.Context, xml []byte) (*infrasri.ResultadoRecepcion, error)
	consultar func(ctx context.Context, clave string) (*infrasri.ResultadoAutorizacion, error)
}

func (a *autorizadorFake) EnviarComprobante(ctx context.Context, xml []byte) (*infrasri.ResultadoRecepcion, error) {
	return a.enviar(ctx, xml)
}

func (a *autorizadorFake) ConsultarAutorizacion(ctx context.Context, clave string) (*infrasri.ResultadoAutorizacion, error) {
	return a.consultar(ctx, clave)
}

// ── escenario ─────────────────────────────────────────────────────────────────

// entorno arma el grafo completo de dependencias con una venta lista para
// facturar: dos líneas de lavado al 12% por un total de 22.40.
type entorno struct {
	ventas   *ventaRepoFake
	clientes *clienteRepoFake
	emisores *emisorRepoFake
	facturas *facturaRepoFake
	puntos   *puntoEmisionRepoFake
	tx       *txRunnerFake
	cfg      config.SRIConfig
	log      *logger.Logger
}

func nuevoEntorno() *entorno {
	facturas := newFacturaRepoFake()
	puntos := &puntoEmisionRepoFake{}
	return &entorno{
		ventas: &ventaRepoFake{
			ventas: map[string]*entity.Venta{
				"V-1": {ID: "V-1", ClienteID: "C-1"},
				"V-2": {ID: "V-2", ClienteID: "C-1"},
			},
			detalles: map[string][]*entity.VentaDetalle{
				"V-1": detallesDeVenta("V-1"),
				"V-2": detallesDeVenta("V-2"),
			},
		},
		clientes: &clienteRepoFake{
			clientes: map[string]*entity.Cliente{
				"C-1": {
					ID:             "C-1",
					Identificacion: "1710034065",
					RazonSocial:    "Juan Pérez",
					Email:          "juan@example.com",
				},
			},
		},
		emisores: &emisorRepoFake{},
		facturas: facturas,
		puntos:   puntos,
		tx:       &txRunnerFake{facturas: facturas, puntos: puntos},
		cfg: config.SRIConfig{
			Ambiente: "1",
			Simulado: true,
			Emisor: config.EmisorOverride{
				RUC:                  "1790012345001",
				RazonSocial:          "MAXIMO LAVADO S.A.S.",
				NombreComercial:      "Máximo Lavado",
				DirMatriz:            "Av. de los Shyris N34-120, Quito",
				Establecimiento:      "001",
				PuntoEmision:         "002",
				ObligadoContabilidad: true,
			},
		},
		log: logger.New(logger.Config{Env: "development", Level: "error"}),
	}
}

func detallesDeVenta(ventaID string) []*entity.VentaDetalle {
	return []*entity.VentaDetalle{
		{
			ID:              ventaID + "-D1",
			VentaID:         ventaID,
			CodigoPrincipal: "LAV-01",
			Descripcion:     "Lavado completo",
			Cantidad:        decimal.NewFromInt(1),
			PrecioUnitario:  decimal.NewFromFloat(10.00),
			TarifaIVA:       decimal.NewFromInt(12),
		},
		{
			ID:              ventaID + "-D2",
			VentaID:         ventaID,
			CodigoPrincipal: "ENC-01",
			Descripcion:     "Encerado",
			Cantidad:        decimal.NewFromInt(1),
			PrecioUnitario:  decimal.NewFromFloat(10.00),
			TarifaIVA:       decimal.NewFromInt(12),
		},
	}
}

// orquestador arma un OrquestadorSRI con el autorizador dado y sin pausa
// apreciable entre recepción y consulta.
func (e *entorno) orquestador(aut infrasri.AutorizadorSRI) *facturacion.OrquestadorSRI {
	o := facturacion.NewOrquestadorSRI(
		e.facturas,
		e.ventas,
		infrasri.NewXMLBuilderService(),
		firmador.NewFirmadorXAdES(),
		aut,
		domsri.NewClaveAccesoService(),
		e.cfg,
		e.log,
	)
	o.EsperaAutorizacion = time.Millisecond
	return o
}

func (e *entorno) useCase(o *facturacion.OrquestadorSRI) *facturacion.EmitirFacturaUseCase {
	return facturacion.NewEmitirFacturaUseCase(
		e.ventas, e.clientes, e.emisores, e.facturas, e.tx, o, e.cfg, e.log,
	)
}

// facturaDraft persiste una factura DRAFT coherente con los detalles de V-1,
// como la deja el caso de uso de emisión.
func (e *entorno) facturaDraft(ctx context.Context, ventaID string) *entity.Factura {
	detalles := e.ventas.detalles[ventaID]
	tot := domsri.CalcularTotales(detalles)
	f := &entity.Factura{
		VentaID:         ventaID,
		Establecimiento: "001",
		PuntoEmision:    "002",
		Secuencial:      1,
		Ambiente:        "1",
		TipoDocumento:   "01",
		TipoEmision:     "1",

		EmisorRUC:                  "1790012345001",
		EmisorRazonSocial:          "MAXIMO LAVADO S.A.S.",
		EmisorDirMatriz:            "Av. de los Shyris N34-120, Quito",
		EmisorObligadoContabilidad: true,

		CompradorIdentificacion:     "1710034065",
		CompradorTipoIdentificacion: "05",
		CompradorRazonSocial:        "Juan Pérez",

		Subtotal:  tot.Subtotal,
		Descuento: tot.Descuento,
		IVA:       tot.IVA,
		Total:     tot.Total,
		TarifaIVA: decimal.NewFromInt(12),

		Estado:       entity.EstadoDraft,
		FechaEmision: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := e.facturas.Create(ctx, f); err != nil {
		panic(err)
	}
	return f
}
