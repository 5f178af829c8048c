// Carga de credenciales de firma: cadena ordenada de fuentes candidatas.
// Primero el par PEM pre-separado (si está configurado), luego el almacén
// .p12 con contraseña. Al fallar todas se agregan los diagnósticos de cada
// fuente (existencia y tamaño del archivo, error criptográfico subyacente)
// sin incluir jamás la contraseña.

package firmador

import (
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// FuenteCredenciales es una fuente candidata de certificado + llave privada.
type FuenteCredenciales interface {
	// Nombre identifica la fuente en los diagnósticos.
	Nombre() string
	// Configurada indica si la fuente tiene datos suficientes para intentarse.
	Configurada() bool
	// Cargar intenta obtener el par. El error debe ser diagnosticable.
	Cargar() (tls.Certificate, error)
}

// ParPEM carga certificado y llave desde archivos PEM separados.
type ParPEM struct {
	CertPath string
	KeyPath  string
}

func (p ParPEM) Nombre() string { return "par PEM" }

func (p ParPEM) Configurada() bool { return p.CertPath != "" && p.KeyPath != "" }

func (p ParPEM) Cargar() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(p.CertPath, p.KeyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM (%s, %s): %w",
			diagArchivo(p.CertPath), diagArchivo(p.KeyPath), err)
	}
	return cert, nil
}

// AlmacenP12 carga el par desde un archivo PKCS#12 (.p12/.pfx) con contraseña.
type AlmacenP12 struct {
	Path     string
	Password string
}

func (a AlmacenP12) Nombre() string { return "almacén .p12" }

func (a AlmacenP12) Configurada() bool { return a.Path != "" }

func (a AlmacenP12) Cargar() (tls.Certificate, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12 (%s): %w", diagArchivo(a.Path), err)
	}
	priv, cert, err := pkcs12.Decode(data, a.Password)
	if err != nil {
		// El error de pkcs12 distingue contraseña incorrecta de archivo corrupto.
		return tls.Certificate{}, fmt.Errorf("decodificar p12 (%s, %d bytes): %w", diagArchivo(a.Path), len(data), err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// ErrSinCredenciales indica que ninguna fuente produjo un par usable.
var ErrSinCredenciales = errors.New("firmador: ninguna fuente de credenciales produjo un par certificado/llave usable")

// CargarCredenciales recorre las fuentes en orden y se detiene en la primera
// que carga. Si todas fallan, devuelve ErrSinCredenciales con el diagnóstico
// agregado de cada fuente intentada.
func CargarCredenciales(fuentes ...FuenteCredenciales) (tls.Certificate, error) {
	var diagnosticos []error
	intentadas := 0
	for _, f := range fuentes {
		if !f.Configurada() {
			continue
		}
		intentadas++
		cert, err := f.Cargar()
		if err != nil {
			diagnosticos = append(diagnosticos, fmt.Errorf("%s: %w", f.Nombre(), err))
			continue
		}
		if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
			diagnosticos = append(diagnosticos, fmt.Errorf("%s: par vacío tras la carga", f.Nombre()))
			continue
		}
		return cert, nil
	}
	if intentadas == 0 {
		return tls.Certificate{}, fmt.Errorf("%w: ninguna fuente configurada (definir SRI_CERT_PATH o SRI_KEY_PATH + SRI_CERT_PEM_PATH)", ErrSinCredenciales)
	}
	return tls.Certificate{}, errors.Join(append([]error{ErrSinCredenciales}, diagnosticos...)...)
}

// diagArchivo describe existencia y tamaño de un archivo para el diagnóstico.
func diagArchivo(path string) string {
	if path == "" {
		return "ruta vacía"
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("%s: no existe", path)
		}
		return fmt.Sprintf("%s: %v", path, err)
	}
	return fmt.Sprintf("%s: %d bytes", path, info.Size())
}

// CertDigestAndIssuerSerial devuelve el digest SHA-1 del certificado (Base64),
// el nombre del emisor y el serial decimal, para el bloque SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64, issuerName, serial string) {
	h := sha1.Sum(cert.Raw)
	return base64.StdEncoding.EncodeToString(h[:]), cert.Issuer.String(), cert.SerialNumber.String()
}
