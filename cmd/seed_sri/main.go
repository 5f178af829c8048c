// seed_sri genera el script SQL de provincias del Ecuador a partir del XML
// del catálogo del SRI (codificado en ISO-8859-1). El código de provincia es
// el que valida el tercer y cuarto dígito de cédulas y RUC.
//
// Uso: go run ./cmd/seed_sri [ruta/Provincias.xml]
// Por defecto busca Provincias.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_provincias.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type catalogo struct {
	Tabla struct {
		Valores []valor `xml:"valor"`
	} `xml:"tabla"`
}

type valor struct {
	Cod    string `xml:"cod,attr"`
	Nombre string `xml:"nombre,attr"`
}

func main() {
	xmlPath := "Provincias.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var c catalogo
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	provincias := make(map[string]string)
	for _, v := range c.Tabla.Valores {
		cod := strings.TrimSpace(v.Cod)
		nombre := strings.TrimSpace(v.Nombre)
		if cod == "" || nombre == "" {
			continue
		}
		provincias[cod] = nombre
	}
	if len(provincias) == 0 {
		fmt.Fprintln(os.Stderr, "El XML no contiene provincias")
		os.Exit(1)
	}

	var codes []string
	for cod := range provincias {
		codes = append(codes, cod)
	}
	sort.Strings(codes)

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_provincias.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Provincias del Ecuador (código SRI)\n")
	out.WriteString("-- Generado desde Provincias.xml\n\n")
	out.WriteString("INSERT INTO provincias (code, name) VALUES\n")
	for i, cod := range codes {
		sep := ","
		if i == len(codes)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s')%s\n", cod, escapeSQL(provincias[cod]), sep)
	}
	out.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;\n")

	fmt.Printf("Generado %s: %d provincias\n", outPath, len(codes))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
