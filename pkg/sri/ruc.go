package sri

import (
	"fmt"
	"unicode"
)

// pesos para el dígito verificador de la cédula ecuatoriana (módulo 10).
var cedulaWeights = [9]int{2, 1, 2, 1, 2, 1, 2, 1, 2}

// ValidateRUC valida la forma de un RUC ecuatoriano: 13 dígitos, provincia
// 01-24 (o 30 para ecuatorianos en el exterior) y terminación "001" del
// código de establecimiento. Para RUC de persona natural (tercer dígito < 6)
// valida además el dígito verificador de la cédula embebida (módulo 10).
func ValidateRUC(ruc string) error {
	digits := extractDigits(ruc)
	if len(digits) != 13 {
		return fmt.Errorf("sri: el RUC debe tener 13 dígitos, se encontraron %d", len(digits))
	}
	provincia := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if (provincia < 1 || provincia > 24) && provincia != 30 {
		return fmt.Errorf("sri: código de provincia %02d inválido en el RUC", provincia)
	}
	if string(digits[10:]) != "001" {
		return fmt.Errorf("sri: el RUC debe terminar en 001, termina en %s", string(digits[10:]))
	}
	if tercero := int(digits[2] - '0'); tercero < 6 {
		// Persona natural: los 10 primeros dígitos son una cédula válida.
		if err := validateCedulaDigits(digits[:10]); err != nil {
			return fmt.Errorf("sri: cédula embebida en el RUC inválida: %w", err)
		}
	}
	return nil
}

// ValidateCedula valida una cédula ecuatoriana de 10 dígitos (módulo 10).
func ValidateCedula(cedula string) error {
	digits := extractDigits(cedula)
	if len(digits) != 10 {
		return fmt.Errorf("sri: la cédula debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	return validateCedulaDigits(digits)
}

func validateCedulaDigits(digits []byte) error {
	var sum int
	for i, w := range cedulaWeights {
		p := int(digits[i]-'0') * w
		if p >= 10 {
			p -= 9
		}
		sum += p
	}
	expected := (10 - sum%10) % 10
	if got := int(digits[9] - '0'); got != expected {
		return fmt.Errorf("dígito verificador inválido: esperado %d, recibido %d", expected, got)
	}
	return nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
