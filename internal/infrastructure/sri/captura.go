package sri

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/logger"
)

// NewCaptura devuelve un hook que guarda los crudos SOAP en dir, con un
// prefijo de marca de tiempo para que las corridas no se pisen entre sí.
// Las fallas de escritura se registran pero nunca interrumpen el envío.
func NewCaptura(dir string, log *logger.Logger) func(nombre string, data []byte) {
	return func(nombre string, data []byte) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("captura SOAP: no se pudo crear el directorio")
			return
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102T150405.000"), nombre))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("captura SOAP: no se pudo escribir el archivo")
		}
	}
}
