// debug_cert diagnostica el certificado de firma electrónica configurado:
// verifica el archivo, la contraseña y la vigencia, sin levantar la API.
//
// Uso: go run ./cmd/debug_cert
// Lee SRI_CERT_PATH / SRI_CERT_PASSWORD / SRI_KEY_PATH / SRI_CERT_PEM_PATH.
package main

import (
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri/firmador"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("DIAGNÓSTICO DE CERTIFICADO DE FIRMA SRI")
	fmt.Println("---------------------------------------")
	fmt.Printf("Par PEM:      cert=%q key=%q\n", cfg.SRI.CertPEMPath, cfg.SRI.KeyPath)
	fmt.Printf("Almacén .p12: %q (contraseña %s)\n", cfg.SRI.CertPath, presencia(cfg.SRI.CertPassword))
	fmt.Println()

	cert, err := firmador.CargarCredenciales(
		firmador.ParPEM{CertPath: cfg.SRI.CertPEMPath, KeyPath: cfg.SRI.KeyPath},
		firmador.AlmacenP12{Path: cfg.SRI.CertPath, Password: cfg.SRI.CertPassword},
	)
	if err != nil {
		fmt.Println("NO se pudo cargar ninguna credencial:")
		fmt.Printf("  %v\n", err)
		os.Exit(1)
	}

	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "parsear certificado cargado: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Credenciales cargadas correctamente.")
	digest, issuer, serial := firmador.CertDigestAndIssuerSerial(leaf)
	fmt.Printf("  Sujeto:   %s\n", leaf.Subject.String())
	fmt.Printf("  Emisor:   %s\n", issuer)
	fmt.Printf("  Serial:   %s\n", serial)
	fmt.Printf("  SHA-1:    %s\n", digest)
	fmt.Printf("  Vigencia: %s — %s\n",
		leaf.NotBefore.Format("2006-01-02"), leaf.NotAfter.Format("2006-01-02"))

	switch now := time.Now(); {
	case now.After(leaf.NotAfter):
		fmt.Println("\nATENCIÓN: el certificado está VENCIDO. El SRI rechazará la firma.")
		os.Exit(1)
	case now.Add(30 * 24 * time.Hour).After(leaf.NotAfter):
		fmt.Println("\nATENCIÓN: el certificado vence en menos de 30 días.")
	default:
		fmt.Println("\nEl certificado está vigente y listo para firmar.")
	}
}

func presencia(s string) string {
	if s == "" {
		return "NO definida"
	}
	return "definida"
}
