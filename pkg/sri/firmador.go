// Package sri: interfaz para firma digital de comprobantes XML (XAdES-BES, SRI).

package sri

import "crypto/tls"

// Firmador firma el XML de un comprobante y devuelve el XML con la firma
// insertada como último hijo del elemento raíz (firma enveloped).
type Firmador interface {
	// Firmar toma el XML del comprobante (sin firma) y el certificado con
	// llave privada, y retorna el XML con el nodo ds:Signature embebido.
	Firmar(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
