package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App  AppConfig
	DB   DBConfig
	HTTP HTTPConfig
	SRI  SRIConfig
}

// SRIConfig configuración de facturación electrónica SRI (Ecuador).
type SRIConfig struct {
	Ambiente     string // "1" = Pruebas, "2" = Producción
	CertPath     string // Ruta al archivo .p12/.pfx (almacén combinado)
	CertPassword string // Contraseña del .p12
	KeyPath      string // Ruta a la llave privada PEM (par pre-separado)
	CertPEMPath  string // Ruta al certificado PEM (par pre-separado)
	Simulado     bool   // true = no llamar al WS SRI, sintetizar la autorización
	CapturaDir   string // Directorio para capturas crudas SOAP (vacío = sin captura)

	// Datos del emisor que sobreescriben el registro en BD si están definidos.
	Emisor EmisorOverride
}

// EmisorOverride permite fijar por configuración los datos del emisor
// (útil en despliegues de un solo local sin fila de emisor en BD).
type EmisorOverride struct {
	RUC                  string
	RazonSocial          string
	NombreComercial      string
	DirMatriz            string
	DirEstablecimiento   string
	Establecimiento      string // código de 3 dígitos (ej: "001")
	PuntoEmision         string // código de 3 dígitos (ej: "001")
	ObligadoContabilidad bool
}

// Definido indica si el override trae al menos el RUC (campo mínimo útil).
func (e EmisorOverride) Definido() bool {
	return e.RUC != ""
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	userInfo := url.UserPassword(c.User, c.Password)

	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}

	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, SRI_AMBIENTE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "maximo-lavado"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "maximo_lavado"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		SRI: SRIConfig{
			Ambiente:     getString(v, "SRI_AMBIENTE", "1"),
			CertPath:     getString(v, "SRI_CERT_PATH", ""),
			CertPassword: getString(v, "SRI_CERT_PASSWORD", ""),
			KeyPath:      getString(v, "SRI_KEY_PATH", ""),
			CertPEMPath:  getString(v, "SRI_CERT_PEM_PATH", ""),
			Simulado:     getBool(v, "SRI_SIMULADO", false),
			CapturaDir:   getString(v, "SRI_CAPTURA_DIR", ""),
			Emisor: EmisorOverride{
				RUC:                  getString(v, "SRI_EMISOR_RUC", ""),
				RazonSocial:          getString(v, "SRI_EMISOR_RAZON_SOCIAL", ""),
				NombreComercial:      getString(v, "SRI_EMISOR_NOMBRE_COMERCIAL", ""),
				DirMatriz:            getString(v, "SRI_EMISOR_DIR_MATRIZ", ""),
				DirEstablecimiento:   getString(v, "SRI_EMISOR_DIR_ESTABLECIMIENTO", ""),
				Establecimiento:      getString(v, "SRI_EMISOR_ESTABLECIMIENTO", "001"),
				PuntoEmision:         getString(v, "SRI_EMISOR_PUNTO_EMISION", "001"),
				ObligadoContabilidad: getBool(v, "SRI_EMISOR_OBLIGADO_CONTABILIDAD", false),
			},
		},
	}

	// La simulación jamás puede quedar activa en producción por descuido.
	if cfg.SRI.Simulado && cfg.SRI.Ambiente == "2" {
		return nil, fmt.Errorf("config: SRI_SIMULADO=true no está permitido con SRI_AMBIENTE=2 (producción)")
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
