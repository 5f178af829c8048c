package dto

import (
	"fmt"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
)

// FacturaResponse es la vista HTTP de una factura electrónica.
type FacturaResponse struct {
	ID          string `json:"id"`
	VentaID     string `json:"venta_id"`
	Numero      string `json:"numero"` // 001-001-000000123
	Estado      string `json:"estado"`
	Ambiente    string `json:"ambiente"`
	ClaveAcceso string `json:"clave_acceso,omitempty"`

	EmisorRUC            string `json:"emisor_ruc"`
	EmisorRazonSocial    string `json:"emisor_razon_social"`
	CompradorID          string `json:"comprador_identificacion"`
	CompradorRazonSocial string `json:"comprador_razon_social"`

	Subtotal  string `json:"subtotal"`
	Descuento string `json:"descuento"`
	IVA       string `json:"iva"`
	Total     string `json:"total"`

	FechaEmision       time.Time         `json:"fecha_emision"`
	NumeroAutorizacion string            `json:"numero_autorizacion,omitempty"`
	FechaAutorizacion  *time.Time        `json:"fecha_autorizacion,omitempty"`
	Mensaje            string            `json:"mensaje,omitempty"`
	Errores            []entity.ErrorSRI `json:"errores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EstadoFacturaResponse es la vista ligera para polling de estado.
type EstadoFacturaResponse struct {
	ID                 string            `json:"id"`
	Estado             string            `json:"estado"`
	ClaveAcceso        string            `json:"clave_acceso,omitempty"`
	NumeroAutorizacion string            `json:"numero_autorizacion,omitempty"`
	FechaAutorizacion  *time.Time        `json:"fecha_autorizacion,omitempty"`
	Mensaje            string            `json:"mensaje,omitempty"`
	Errores            []entity.ErrorSRI `json:"errores,omitempty"`
}

// AnularFacturaRequest cuerpo de la anulación.
type AnularFacturaRequest struct {
	Motivo string `json:"motivo"`
}

// FacturaFromEntity mapea la entidad a su vista HTTP.
func FacturaFromEntity(f *entity.Factura) FacturaResponse {
	return FacturaResponse{
		ID:          f.ID,
		VentaID:     f.VentaID,
		Numero:      fmt.Sprintf("%s-%09d", f.Serie(), f.Secuencial),
		Estado:      string(f.Estado),
		Ambiente:    f.Ambiente,
		ClaveAcceso: f.ClaveAcceso,

		EmisorRUC:            f.EmisorRUC,
		EmisorRazonSocial:    f.EmisorRazonSocial,
		CompradorID:          f.CompradorIdentificacion,
		CompradorRazonSocial: f.CompradorRazonSocial,

		Subtotal:  f.Subtotal.StringFixed(2),
		Descuento: f.Descuento.StringFixed(2),
		IVA:       f.IVA.StringFixed(2),
		Total:     f.Total.StringFixed(2),

		FechaEmision:       f.FechaEmision,
		NumeroAutorizacion: f.NumeroAutorizacion,
		FechaAutorizacion:  f.FechaAutorizacion,
		Mensaje:            f.Mensaje,
		Errores:            f.Errores,

		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// EstadoFromEntity mapea los campos de estado de la factura.
func EstadoFromEntity(f *entity.Factura) EstadoFacturaResponse {
	return EstadoFacturaResponse{
		ID:                 f.ID,
		Estado:             string(f.Estado),
		ClaveAcceso:        f.ClaveAcceso,
		NumeroAutorizacion: f.NumeroAutorizacion,
		FechaAutorizacion:  f.FechaAutorizacion,
		Mensaje:            f.Mensaje,
		Errores:            f.Errores,
	}
}
