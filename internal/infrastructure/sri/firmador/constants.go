// Constantes para firma XAdES-BES de comprobantes SRI (esquema v1.1.0).

package firmador

// Namespaces y algoritmos XMLDSig / XAdES. El esquema 1.1.0 del SRI exige
// algoritmos basados en SHA-1 (rsa-sha1 para la firma, sha1 para digests).
const (
	NamespaceDS    = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES = "http://uri.etsi.org/01903/v1.3.2#"

	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// ComprobanteElementID es el id del elemento raíz al que apunta la Reference.
// Debe coincidir con el atributo id de <factura>.
const ComprobanteElementID = "comprobante"
