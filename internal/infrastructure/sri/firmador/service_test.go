package firmador

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// certificadoDePrueba genera un par autofirmado RSA en memoria.
func certificadoDePrueba(t *testing.T) tls.Certificate {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(98765),
		Subject: pkix.Name{
			CommonName:   "FIRMA PRUEBAS",
			Organization: []string{"MAXIMO LAVADO S.A.S."},
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
		Leaf:        leaf,
	}
}

const xmlSinFirmar = `<?xml version="1.0" encoding="UTF-8"?>
<factura id="comprobante" version="1.1.0">
  <infoTributaria>
    <ruc>1790012345001</ruc>
    <claveAcceso>1507202401179001234500110010020000001231234567813</claveAcceso>
  </infoTributaria>
</factura>`

func TestFirmar_InyectaSignatureComoUltimoHijo(t *testing.T) {
	cert := certificadoDePrueba(t)
	svc := &FirmadorXAdES{
		ahora: func() time.Time {
			return time.Date(2024, 7, 15, 14, 30, 0, 0, time.UTC)
		},
	}

	firmado, err := svc.Firmar([]byte(xmlSinFirmar), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(firmado), "el XML firmado debe seguir siendo bien formado")

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "factura", root.Tag)

	hijos := root.ChildElements()
	require.NotEmpty(t, hijos)
	sig := hijos[len(hijos)-1]
	assert.Equal(t, "Signature", sig.Tag, "la firma va como último hijo del raíz")

	// El contenido original queda intacto
	it := root.SelectElement("infoTributaria")
	require.NotNil(t, it)
	assert.Equal(t, "1790012345001", it.SelectElement("ruc").Text())

	// Reference apunta al documento completo vía el id del raíz
	ref := sig.FindElement(".//Reference")
	require.NotNil(t, ref)
	assert.Equal(t, "#comprobante", ref.SelectAttrValue("URI", ""))

	// SignatureValue es Base64 válido y del tamaño de la llave (2048 bits)
	sv := sig.FindElement(".//SignatureValue")
	require.NotNil(t, sv)
	raw, err := base64.StdEncoding.DecodeString(sv.Text())
	require.NoError(t, err)
	assert.Len(t, raw, 256)

	// KeyInfo lleva el certificado firmante
	x509El := sig.FindElement(".//X509Certificate")
	require.NotNil(t, x509El)
	der, err := base64.StdEncoding.DecodeString(x509El.Text())
	require.NoError(t, err)
	parsed, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	assert.Equal(t, "FIRMA PRUEBAS", parsed.Subject.CommonName)

	// Propiedades XAdES: hora de firma fijada e IssuerSerial del certificado
	st := sig.FindElement(".//SigningTime")
	require.NotNil(t, st)
	assert.Equal(t, "2024-07-15T14:30:00Z", st.Text())

	serial := sig.FindElement(".//X509SerialNumber")
	require.NotNil(t, serial)
	assert.Equal(t, "98765", serial.Text())
}

func TestFirmar_ValorDeFirmaVerificable(t *testing.T) {
	cert := certificadoDePrueba(t)
	svc := NewFirmadorXAdES()

	// El digest del certificado en SigningCertificate debe coincidir con el
	// SHA-1 real del DER.
	digestB64, issuer, serial := CertDigestAndIssuerSerial(cert.Leaf)
	assert.NotEmpty(t, digestB64)
	assert.Contains(t, issuer, "FIRMA PRUEBAS")
	assert.Equal(t, "98765", serial)

	firmado, err := svc.Firmar([]byte(xmlSinFirmar), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(firmado))
	dv := doc.FindElement("//SigningCertificate//DigestValue")
	require.NotNil(t, dv)
	assert.Equal(t, digestB64, dv.Text())
}

func TestFirmar_Errores(t *testing.T) {
	cert := certificadoDePrueba(t)
	svc := NewFirmadorXAdES()

	_, err := svc.Firmar(nil, cert)
	assert.Error(t, err, "XML vacío no se firma")

	sinLlave := tls.Certificate{Certificate: cert.Certificate}
	_, err = svc.Firmar([]byte(xmlSinFirmar), sinLlave)
	assert.Error(t, err, "sin llave RSA no hay firma")

	sinCadena := tls.Certificate{PrivateKey: cert.PrivateKey}
	_, err = svc.Firmar([]byte(xmlSinFirmar), sinCadena)
	assert.Error(t, err, "sin cadena X.509 no hay firma")
}
