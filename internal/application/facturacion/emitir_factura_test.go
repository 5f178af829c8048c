package facturacion_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain"
	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	infrasri "github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/infrastructure/sri"
)

func TestExecute_CreaFacturaDraft(t *testing.T) {
	e := nuevoEntorno()
	sim := infrasri.NewSimuladorSRI()
	sim.ForzarEstado = infrasri.AutorizacionEnProceso
	uc := e.useCase(e.orquestador(sim))

	f, err := uc.Execute(context.Background(), "V-1")
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoDraft, f.Estado)
	assert.Equal(t, "V-1", f.VentaID)
	assert.Equal(t, int64(1), f.Secuencial)
	assert.Equal(t, "001-002", f.Serie())

	// Snapshot del emisor desde el override de configuración
	assert.Equal(t, "1790012345001", f.EmisorRUC)
	assert.Equal(t, "MAXIMO LAVADO S.A.S.", f.EmisorRazonSocial)
	assert.True(t, f.EmisorObligadoContabilidad)

	// Snapshot del comprador con tipo de identificación derivado
	assert.Equal(t, "1710034065", f.CompradorIdentificacion)
	assert.Equal(t, "05", f.CompradorTipoIdentificacion, "la cédula de 10 dígitos es tipo 05")
	assert.Equal(t, "Juan Pérez", f.CompradorRazonSocial)

	// Totales calculados de las líneas: 2 × 10.00 al 12%
	assert.Equal(t, "20.00", f.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", f.IVA.StringFixed(2))
	assert.Equal(t, "22.40", f.Total.StringFixed(2))
	assert.Equal(t, "12", f.TarifaIVA.String())
}

func TestExecute_VentaYaFacturada(t *testing.T) {
	e := nuevoEntorno()
	sim := infrasri.NewSimuladorSRI()
	sim.ForzarEstado = infrasri.AutorizacionEnProceso
	uc := e.useCase(e.orquestador(sim))

	ctx := context.Background()
	primera := e.facturaDraft(ctx, "V-1")

	f, err := uc.Execute(ctx, "V-1")
	require.ErrorIs(t, err, domain.ErrVentaFacturada)
	require.NotNil(t, f, "se devuelve la factura existente junto con el error")
	assert.Equal(t, primera.ID, f.ID)
}

func TestExecute_VentaInexistente(t *testing.T) {
	e := nuevoEntorno()
	uc := e.useCase(e.orquestador(infrasri.NewSimuladorSRI()))

	_, err := uc.Execute(context.Background(), "V-999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecute_VentaSinLineas(t *testing.T) {
	e := nuevoEntorno()
	e.ventas.ventas["V-3"] = &entity.Venta{ID: "V-3", ClienteID: "C-1"}
	uc := e.useCase(e.orquestador(infrasri.NewSimuladorSRI()))

	_, err := uc.Execute(context.Background(), "V-3")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExecute_EmisorDesdeBD(t *testing.T) {
	e := nuevoEntorno()
	e.cfg.Emisor.RUC = "" // sin override: el emisor sale de la BD
	e.cfg.Emisor.Establecimiento = "001"
	e.cfg.Emisor.PuntoEmision = "001"
	e.emisores.emisor = &entity.Emisor{
		RUC:         "0990012345001",
		RazonSocial: "LAVADORA GUAYAS S.A.",
		DirMatriz:   "Av. 9 de Octubre, Guayaquil",
	}
	sim := infrasri.NewSimuladorSRI()
	sim.ForzarEstado = infrasri.AutorizacionEnProceso
	uc := e.useCase(e.orquestador(sim))

	f, err := uc.Execute(context.Background(), "V-1")
	require.NoError(t, err)
	assert.Equal(t, "0990012345001", f.EmisorRUC)
	assert.Equal(t, "LAVADORA GUAYAS S.A.", f.EmisorRazonSocial)
}

func TestExecute_SinEmisorConfigurado(t *testing.T) {
	e := nuevoEntorno()
	e.cfg.Emisor.RUC = "" // ni override ni fila en BD
	uc := e.useCase(e.orquestador(infrasri.NewSimuladorSRI()))

	_, err := uc.Execute(context.Background(), "V-1")
	assert.ErrorIs(t, err, domain.ErrConfiguracion)
}

func TestExecute_SecuencialesConsecutivos(t *testing.T) {
	e := nuevoEntorno()
	sim := infrasri.NewSimuladorSRI()
	sim.ForzarEstado = infrasri.AutorizacionEnProceso
	uc := e.useCase(e.orquestador(sim))

	ctx := context.Background()
	f1, err := uc.Execute(ctx, "V-1")
	require.NoError(t, err)
	f2, err := uc.Execute(ctx, "V-2")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f1.Secuencial)
	assert.Equal(t, int64(2), f2.Secuencial)
	assert.NotEqual(t, f1.ID, f2.ID)
}

func TestExecute_SecuencialUnicoBajoConcurrencia(t *testing.T) {
	const n = 20

	e := nuevoEntorno()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("V-C%d", i)
		e.ventas.ventas[id] = &entity.Venta{ID: id, ClienteID: "C-1"}
		e.ventas.detalles[id] = detallesDeVenta(id)
	}
	sim := infrasri.NewSimuladorSRI()
	sim.ForzarEstado = infrasri.AutorizacionEnProceso
	uc := e.useCase(e.orquestador(sim))

	ctx := context.Background()
	secuenciales := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(ventaID string) {
			defer wg.Done()
			f, err := uc.Execute(ctx, ventaID)
			assert.NoError(t, err)
			if f != nil {
				secuenciales <- f.Secuencial
			}
		}(fmt.Sprintf("V-C%d", i))
	}
	wg.Wait()
	close(secuenciales)

	// Emisiones concurrentes jamás comparten número: la tripleta
	// (establecimiento, punto de emisión, secuencial) es única.
	vistos := make(map[int64]bool, n)
	for s := range secuenciales {
		assert.False(t, vistos[s], "secuencial %d asignado dos veces", s)
		vistos[s] = true
	}
	assert.Len(t, vistos, n)
}
