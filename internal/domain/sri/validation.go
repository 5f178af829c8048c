// Package sri contiene además validaciones de dominio previas a la
// construcción del XML: sin venta o sin líneas no hay documento que firmar.
package sri

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
)

// ErrFacturaInvalida agrupa errores de validación de la factura.
var ErrFacturaInvalida = errors.New("factura inválida para el SRI")

// toleranciaRedondeo admitida entre el impuesto agregado y la suma por líneas.
var toleranciaRedondeo = decimal.NewFromFloat(0.01)

// ValidarFactura comprueba que la factura y sus líneas sean coherentes antes
// de firmar: montos no negativos, totales reconciliados con las líneas,
// datos mínimos del emisor y comprador presentes y dígitos verificadores
// correctos en el RUC del emisor y la identificación del comprador.
func ValidarFactura(f *entity.Factura, detalles []*entity.VentaDetalle) error {
	if f == nil {
		return fmt.Errorf("%w: factura nula", ErrFacturaInvalida)
	}
	var errs []error

	if f.EmisorRUC == "" || f.EmisorRazonSocial == "" || f.EmisorDirMatriz == "" {
		errs = append(errs, fmt.Errorf("datos del emisor incompletos (RUC, razón social y dirección matriz son obligatorios)"))
	} else if err := pkgsri.ValidateRUC(f.EmisorRUC); err != nil {
		errs = append(errs, fmt.Errorf("RUC del emisor: %w", err))
	}
	if f.CompradorIdentificacion == "" || f.CompradorRazonSocial == "" {
		errs = append(errs, fmt.Errorf("datos del comprador incompletos"))
	} else {
		// Pasaportes y consumidor final no llevan dígito verificador.
		switch pkgsri.TipoIdentificacion(f.CompradorIdentificacion) {
		case pkgsri.IdentificacionCedula:
			if err := pkgsri.ValidateCedula(f.CompradorIdentificacion); err != nil {
				errs = append(errs, fmt.Errorf("cédula del comprador: %w", err))
			}
		case pkgsri.IdentificacionRUC:
			if err := pkgsri.ValidateRUC(f.CompradorIdentificacion); err != nil {
				errs = append(errs, fmt.Errorf("RUC del comprador: %w", err))
			}
		}
	}
	if f.Total.IsNegative() || f.Subtotal.IsNegative() || f.IVA.IsNegative() {
		errs = append(errs, fmt.Errorf("montos negativos: subtotal=%s iva=%s total=%s",
			f.Subtotal.String(), f.IVA.String(), f.Total.String()))
	}

	if len(detalles) > 0 {
		var sumaBase, sumaIVA decimal.Decimal
		for _, d := range detalles {
			if !d.Cantidad.IsPositive() {
				errs = append(errs, fmt.Errorf("línea %q con cantidad no positiva", d.Descripcion))
				continue
			}
			base := d.PrecioTotalSinImpuesto()
			sumaBase = sumaBase.Add(base)
			sumaIVA = sumaIVA.Add(base.Mul(d.TarifaIVA).Div(decimal.NewFromInt(100)).Round(2))
		}
		if f.Subtotal.Sub(sumaBase.Round(2)).Abs().GreaterThan(toleranciaRedondeo) {
			errs = append(errs, fmt.Errorf("subtotal (%s) no coincide con la suma de líneas (%s)",
				f.Subtotal.String(), sumaBase.Round(2).String()))
		}
		if f.IVA.Sub(sumaIVA).Abs().GreaterThan(toleranciaRedondeo) {
			errs = append(errs, fmt.Errorf("IVA agregado (%s) no coincide con la suma de impuestos por línea (%s)",
				f.IVA.String(), sumaIVA.String()))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrFacturaInvalida}, errs...)...)
	}
	return nil
}
