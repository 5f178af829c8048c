package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/application/facturacion"
	domsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/sri"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/postgres"
	infrasri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri/firmador"
	httpRouter "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/interfaces/http"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/config"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sri_ambiente", cfg.SRI.Ambiente).
		Bool("sri_simulado", cfg.SRI.Simulado).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ventaRepo := postgres.NewVentaRepository(pool)
	clienteRepo := postgres.NewClienteRepository(pool)
	emisorRepo := postgres.NewEmisorRepository(pool)
	facturaRepo := postgres.NewFacturaRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	xmlBuilder := infrasri.NewXMLBuilderService()
	firmadorSvc := firmador.NewFirmadorXAdES()
	claveService := domsri.NewClaveAccesoService()

	// Autorizador SRI: simulador en desarrollo, cliente SOAP contra
	// celcer/cel.sri.gob.ec en pruebas y producción.
	var autorizador infrasri.AutorizadorSRI
	if cfg.SRI.Simulado {
		log.Warn().Msg("SRI_SIMULADO activo: las autorizaciones se sintetizan localmente")
		autorizador = infrasri.NewSimuladorSRI()
	} else {
		cliente := infrasri.NewClienteSOAP(cfg.SRI.Ambiente)
		if cfg.SRI.CapturaDir != "" {
			cliente.Captura = infrasri.NewCaptura(cfg.SRI.CapturaDir, log)
		}
		autorizador = cliente
	}

	// OrquestadorSRI: clave de acceso → XML → XAdES-BES → recepción → autorización → BD
	orquestador := facturacion.NewOrquestadorSRI(
		facturaRepo, ventaRepo, xmlBuilder, firmadorSvc, autorizador,
		claveService, cfg.SRI, log,
	)

	emitirUC := facturacion.NewEmitirFacturaUseCase(
		ventaRepo, clienteRepo, emisorRepo, facturaRepo,
		txRunner, orquestador, cfg.SRI, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Máximo Lavado — Facturación Electrónica",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitirFactura: emitirUC,
		Orquestador:   orquestador,
		FacturaRepo:   facturaRepo,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
