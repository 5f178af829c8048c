// Package sri: generación de la clave de acceso de comprobantes electrónicos
// según la ficha técnica del SRI (Ecuador). Cadena de 48 dígitos en orden
// estricto más un dígito verificador módulo 11.

package sri

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
)

// ClaveAccesoParams contiene los datos para formar la clave de acceso en el
// orden exigido por el SRI.
type ClaveAccesoParams struct {
	FechaEmision    time.Time // se serializa como ddmmaaaa
	TipoComprobante string    // "01" factura
	RUC             string    // 13 dígitos
	Ambiente        string    // "1" pruebas, "2" producción
	Establecimiento string    // 3 dígitos
	PuntoEmision    string    // 3 dígitos
	Secuencial      int64     // se rellena a 9 dígitos
	CodigoNumerico  string    // 8 dígitos, aleatorio por factura
	TipoEmision     string    // "1" normal
}

var soloDigitosRe = regexp.MustCompile(`^[0-9]+$`)

// ClaveAccesoService genera claves de acceso de 49 dígitos.
type ClaveAccesoService struct{}

// NewClaveAccesoService crea el servicio.
func NewClaveAccesoService() *ClaveAccesoService {
	return &ClaveAccesoService{}
}

// Generar forma la cadena de 48 dígitos y añade el dígito verificador.
// Determinista para parámetros idénticos; la aleatoriedad viene solo del
// código numérico, que el llamador debe sortear fresco por factura.
func (s *ClaveAccesoService) Generar(p *ClaveAccesoParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("sri: ClaveAccesoParams es obligatorio")
	}
	if p.FechaEmision.IsZero() {
		return "", fmt.Errorf("sri: FechaEmision es obligatoria")
	}
	if err := campoNumerico("RUC", p.RUC, 13); err != nil {
		return "", err
	}
	if err := campoNumerico("TipoComprobante", p.TipoComprobante, 2); err != nil {
		return "", err
	}
	if err := campoNumerico("Establecimiento", p.Establecimiento, 3); err != nil {
		return "", err
	}
	if err := campoNumerico("PuntoEmision", p.PuntoEmision, 3); err != nil {
		return "", err
	}
	if err := campoNumerico("CodigoNumerico", p.CodigoNumerico, 8); err != nil {
		return "", err
	}
	if p.Secuencial <= 0 || p.Secuencial > 999999999 {
		return "", fmt.Errorf("sri: Secuencial %d fuera de rango (1..999999999)", p.Secuencial)
	}
	if !pkgsri.ValidAmbientes[p.Ambiente] {
		return "", fmt.Errorf("sri: Ambiente %q inválido (usar 1 o 2)", p.Ambiente)
	}
	tipoEmision := p.TipoEmision
	if tipoEmision == "" {
		tipoEmision = pkgsri.EmisionNormal
	}

	// Orden estricto SRI (48 dígitos)
	cadena := p.FechaEmision.Format("02012006") +
		p.TipoComprobante +
		p.RUC +
		p.Ambiente +
		p.Establecimiento +
		p.PuntoEmision +
		fmt.Sprintf("%09d", p.Secuencial) +
		p.CodigoNumerico +
		tipoEmision

	if len(cadena) != 48 {
		return "", fmt.Errorf("sri: la cadena base debe tener 48 dígitos, tiene %d", len(cadena))
	}
	dv, err := DigitoVerificador(cadena)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", cadena, dv), nil
}

// DigitoVerificador calcula el dígito módulo 11 de una cadena numérica:
// pesos 2..7 cíclicos desde el dígito menos significativo, dv = 11 − (suma mod 11),
// con 11 → 0 y 10 → 1.
func DigitoVerificador(cadena string) (int, error) {
	if cadena == "" || !soloDigitosRe.MatchString(cadena) {
		return 0, fmt.Errorf("sri: la cadena para el dígito verificador debe ser numérica")
	}
	peso := 2
	suma := 0
	for i := len(cadena) - 1; i >= 0; i-- {
		suma += int(cadena[i]-'0') * peso
		peso++
		if peso > 7 {
			peso = 2
		}
	}
	dv := 11 - suma%11
	switch dv {
	case 11:
		return 0, nil
	case 10:
		return 1, nil
	default:
		return dv, nil
	}
}

// NuevoCodigoNumerico sortea el bloque aleatorio de 8 dígitos de la clave.
// Usa crypto/rand: dos facturas con los mismos datos en ambientes distintos
// no deben colisionar en clave de acceso.
func NuevoCodigoNumerico() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", fmt.Errorf("sri: sortear código numérico: %w", err)
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

func campoNumerico(nombre, valor string, ancho int) error {
	if len(valor) != ancho || !soloDigitosRe.MatchString(valor) {
		return fmt.Errorf("sri: %s debe tener %d dígitos numéricos, recibido %q", nombre, ancho, valor)
	}
	return nil
}
