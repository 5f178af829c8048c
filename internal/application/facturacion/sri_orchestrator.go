package facturacion

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/repository"
	domsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
	infrasri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri/firmador"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/config"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/logger"
	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
)

// OrquestadorSRI conduce el ciclo completo de autorización electrónica:
//
//	clave de acceso → XML → firma XAdES-BES → recepción SOAP → autorización → Update BD
//
// Se ejecuta en goroutine independiente (ProcesarAsync) con su propio
// context.Background() + timeout, desacoplado del ciclo HTTP.
//
// Las fallas de transporte o protocolo nunca tumban el proceso: la factura
// pasa a REJECTED con un error tipo SISTEMA y el reenvío queda disponible
// para reintentar.
type OrquestadorSRI struct {
	facturaRepo  repository.FacturaRepository
	ventaRepo    repository.VentaRepository
	xmlBuilder   *infrasri.XMLBuilderService
	firmador     pkgsri.Firmador
	autorizador  infrasri.AutorizadorSRI
	claveService *domsri.ClaveAccesoService
	cfg          config.SRIConfig
	log          *logger.Logger

	// EsperaAutorizacion es la pausa entre la recepción y la consulta de
	// autorización. El WS del SRI tarda unos segundos en resolver.
	EsperaAutorizacion time.Duration
}

// NewOrquestadorSRI construye el orquestador con todas sus dependencias.
func NewOrquestadorSRI(
	facturaRepo repository.FacturaRepository,
	ventaRepo repository.VentaRepository,
	xmlBuilder *infrasri.XMLBuilderService,
	f pkgsri.Firmador,
	autorizador infrasri.AutorizadorSRI,
	claveService *domsri.ClaveAccesoService,
	cfg config.SRIConfig,
	log *logger.Logger,
) *OrquestadorSRI {
	return &OrquestadorSRI{
		facturaRepo:        facturaRepo,
		ventaRepo:          ventaRepo,
		xmlBuilder:         xmlBuilder,
		firmador:           f,
		autorizador:        autorizador,
		claveService:       claveService,
		cfg:                cfg,
		log:                log,
		EsperaAutorizacion: 3 * time.Second,
	}
}

// ProcesarAsync dispara el procesamiento SRI en una goroutine independiente.
// facturaID es el ID de la factura ya persistida en estado DRAFT.
func (o *OrquestadorSRI) ProcesarAsync(facturaID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		if err := o.Procesar(ctx, facturaID); err != nil {
			o.log.Error().Err(err).Str("factura_id", facturaID).Msg("proceso SRI terminó con error")
		}
	}()
}

// Procesar es el núcleo síncrono del orquestador. Solo procesa facturas en
// DRAFT; siempre termina persistiendo el desenlace sobre la factura.
func (o *OrquestadorSRI) Procesar(ctx context.Context, facturaID string) error {
	log := o.log.ConFactura(facturaID)

	f, err := o.facturaRepo.GetByID(ctx, facturaID)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if f.Estado != entity.EstadoDraft {
		log.Warn().Str("estado", string(f.Estado)).Msg("factura no está en DRAFT, saltando proceso")
		return &entity.ErrTransicionInvalida{Desde: f.Estado, Hacia: entity.EstadoSubmitted}
	}

	detalles, err := o.ventaRepo.GetDetalles(ctx, f.VentaID)
	if err != nil {
		return o.marcarSistema(ctx, f, "detalles", err.Error())
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Validación previa: una factura incompleta no sale a la red
	// ═══════════════════════════════════════════════════════════════════════════
	if err := domsri.ValidarFactura(f, detalles); err != nil {
		f.Errores = append(f.Errores, entity.ErrorSRI{
			Identificador: "VALIDACION",
			Mensaje:       err.Error(),
			Tipo:          "ERROR",
		})
		f.Mensaje = "la factura no pasó la validación previa"
		return o.transicionarYGuardar(ctx, f, entity.EstadoRejected)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Clave de acceso: se conserva la existente en reintentos
	// ═══════════════════════════════════════════════════════════════════════════
	if f.ClaveAcceso == "" {
		codigo, err := domsri.NuevoCodigoNumerico()
		if err != nil {
			return o.marcarSistema(ctx, f, "clave-acceso", err.Error())
		}
		clave, err := o.claveService.Generar(&domsri.ClaveAccesoParams{
			FechaEmision:    f.FechaEmision,
			TipoComprobante: f.TipoDocumento,
			RUC:             f.EmisorRUC,
			Ambiente:        f.Ambiente,
			Establecimiento: f.Establecimiento,
			PuntoEmision:    f.PuntoEmision,
			Secuencial:      f.Secuencial,
			CodigoNumerico:  codigo,
			TipoEmision:     f.TipoEmision,
		})
		if err != nil {
			return o.marcarSistema(ctx, f, "clave-acceso", err.Error())
		}
		f.ClaveAcceso = clave
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. XML del comprobante
	// ═══════════════════════════════════════════════════════════════════════════
	xmlBytes, err := o.xmlBuilder.Build(&infrasri.FacturaBuildContext{Factura: f, Detalles: detalles})
	if err != nil {
		return o.marcarSistema(ctx, f, "xml-build", err.Error())
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Firma digital XAdES-BES
	// ═══════════════════════════════════════════════════════════════════════════
	firmado := xmlBytes
	cert, certErr := o.cargarCredenciales()
	switch {
	case certErr == nil:
		firmado, err = o.firmador.Firmar(xmlBytes, cert)
		if err != nil {
			return o.marcarSistema(ctx, f, "xml-sign", err.Error())
		}
	case o.cfg.Simulado:
		// En simulación se tolera la ausencia de certificado: el XML viaja sin firma.
		log.Warn().Err(certErr).Msg("sin credenciales de firma, enviando comprobante sin firmar al simulador")
	default:
		return o.marcarSistema(ctx, f, "cert-load", certErr.Error())
	}

	f.XMLDocumento = string(firmado)
	if err := o.facturaRepo.Update(ctx, f); err != nil {
		return fmt.Errorf("persistir XML firmado: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Fase de recepción
	// ═══════════════════════════════════════════════════════════════════════════
	rec, err := o.autorizador.EnviarComprobante(ctx, firmado)
	if err != nil {
		return o.marcarSistema(ctx, f, "recepcion", err.Error())
	}
	if rec.Estado != infrasri.RecepcionRecibida {
		f.Errores = append(f.Errores, rec.Errores...)
		f.Mensaje = "comprobante devuelto en recepción"
		log.Warn().Str("clave_acceso", f.ClaveAcceso).Msg("comprobante DEVUELTA por el SRI")
		return o.transicionarYGuardar(ctx, f, entity.EstadoRejected)
	}

	f.Mensaje = "recibida por el SRI, esperando autorización"
	if err := o.transicionarYGuardar(ctx, f, entity.EstadoSubmitted); err != nil {
		return err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 6. Fase de autorización (una consulta tras una pausa corta)
	// ═══════════════════════════════════════════════════════════════════════════
	select {
	case <-time.After(o.EsperaAutorizacion):
	case <-ctx.Done():
		return o.marcarSistema(ctx, f, "autorizacion", "cancelado antes de consultar: "+ctx.Err().Error())
	}
	return o.aplicarAutorizacion(ctx, f, log)
}

// ConsultarAutorizacion re-consulta el WS para una factura enviada cuyo
// desenlace quedó pendiente (EN PROCESO). Para cualquier otro estado devuelve
// la factura tal como está.
func (o *OrquestadorSRI) ConsultarAutorizacion(ctx context.Context, facturaID string) (*entity.Factura, error) {
	f, err := o.facturaRepo.GetByID(ctx, facturaID)
	if err != nil {
		return nil, err
	}
	if f.Estado != entity.EstadoSubmitted {
		return f, nil
	}
	log := o.log.ConFactura(facturaID)
	if err := o.aplicarAutorizacion(ctx, f, log); err != nil {
		return f, err
	}
	return f, nil
}

// Reenviar devuelve una factura rechazada a DRAFT (misma clave de acceso,
// motivos limpios) y dispara el proceso de nuevo.
func (o *OrquestadorSRI) Reenviar(ctx context.Context, facturaID string) (*entity.Factura, error) {
	f, err := o.facturaRepo.GetByID(ctx, facturaID)
	if err != nil {
		return nil, err
	}
	if err := f.Transicionar(entity.EstadoDraft); err != nil {
		return nil, err
	}
	f.Errores = nil
	f.Mensaje = "reenvío solicitado"
	if err := o.facturaRepo.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("persistir reenvío: %w", err)
	}
	o.ProcesarAsync(f.ID)
	return f, nil
}

// Anular marca una factura autorizada como anulada. El trámite tributario de
// la anulación se hace ante el SRI por fuera; aquí solo se registra.
func (o *OrquestadorSRI) Anular(ctx context.Context, facturaID, motivo string) (*entity.Factura, error) {
	f, err := o.facturaRepo.GetByID(ctx, facturaID)
	if err != nil {
		return nil, err
	}
	if err := f.Transicionar(entity.EstadoCancelled); err != nil {
		return nil, err
	}
	if motivo == "" {
		motivo = "factura anulada por el emisor"
	}
	f.Mensaje = motivo
	if err := o.facturaRepo.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("persistir anulación: %w", err)
	}
	o.log.Info().Str("factura_id", facturaID).Msg("factura anulada")
	return f, nil
}

// ── helpers privados ──────────────────────────────────────────────────────────

// aplicarAutorizacion consulta el WS y persiste el desenlace sobre f.
func (o *OrquestadorSRI) aplicarAutorizacion(ctx context.Context, f *entity.Factura, log zerolog.Logger) error {
	res, err := o.autorizador.ConsultarAutorizacion(ctx, f.ClaveAcceso)
	if err != nil {
		// Falla de transporte: la factura pasa a REJECTED y se puede reenviar.
		return o.marcarSistema(ctx, f, "autorizacion", err.Error())
	}

	switch res.Estado {
	case infrasri.AutorizacionAutorizado:
		f.NumeroAutorizacion = res.NumeroAutorizacion
		f.FechaAutorizacion = res.FechaAutorizacion
		f.XMLAutorizado = res.XMLAutorizado
		if f.XMLAutorizado == "" {
			f.XMLAutorizado = f.XMLDocumento
		}
		f.Mensaje = "autorizada por el SRI"
		log.Info().Str("numero_autorizacion", f.NumeroAutorizacion).Msg("factura AUTORIZADA")
		return o.transicionarYGuardar(ctx, f, entity.EstadoAuthorized)

	case infrasri.AutorizacionNoAutorizado:
		f.Errores = append(f.Errores, res.Errores...)
		f.Mensaje = "no autorizada por el SRI"
		log.Warn().Str("clave_acceso", f.ClaveAcceso).Msg("factura NO AUTORIZADA")
		return o.transicionarYGuardar(ctx, f, entity.EstadoRejected)

	default:
		// EN PROCESO o estado desconocido: queda SUBMITTED, re-consultable.
		f.Mensaje = "autorización en proceso en el SRI"
		if err := o.facturaRepo.Update(ctx, f); err != nil {
			return fmt.Errorf("persistir EN PROCESO: %w", err)
		}
		return nil
	}
}

// marcarSistema registra una falla de infraestructura sobre la factura y la
// rechaza: desde REJECTED el reenvío queda disponible para el reintento
// manual. Los motivos previos se conservan.
func (o *OrquestadorSRI) marcarSistema(ctx context.Context, f *entity.Factura, paso, msg string) error {
	f.Errores = append(f.Errores, entity.ErrorSRI{
		Identificador: paso,
		Mensaje:       msg,
		Tipo:          entity.TipoErrorSistema,
	})
	f.Mensaje = fmt.Sprintf("falla de sistema en %s", paso)
	if err := f.Transicionar(entity.EstadoRejected); err != nil {
		o.log.Warn().Err(err).Str("factura_id", f.ID).Msg("no se pudo rechazar la factura tras la falla")
	}
	if err := o.facturaRepo.Update(ctx, f); err != nil {
		o.log.Error().Err(err).Str("factura_id", f.ID).Msg("no se pudo persistir el error de sistema")
	}
	o.log.Error().Str("factura_id", f.ID).Str("paso", paso).Msg(msg)
	return errors.New(msg)
}

func (o *OrquestadorSRI) transicionarYGuardar(ctx context.Context, f *entity.Factura, destino entity.Estado) error {
	if err := f.Transicionar(destino); err != nil {
		return err
	}
	if err := o.facturaRepo.Update(ctx, f); err != nil {
		return fmt.Errorf("persistir estado %s: %w", destino, err)
	}
	return nil
}

func (o *OrquestadorSRI) cargarCredenciales() (tls.Certificate, error) {
	return firmador.CargarCredenciales(
		firmador.ParPEM{CertPath: o.cfg.CertPEMPath, KeyPath: o.cfg.KeyPath},
		firmador.AlmacenP12{Path: o.cfg.CertPath, Password: o.cfg.CertPassword},
	)
}
