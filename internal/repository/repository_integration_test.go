//go:build integration

package repository

// Integration tests against real Postgres via testcontainers.
// Run with: go test -tags integration ./internal/repository/... -v
// Applies the real SQL migrations so the schema under test is the deployed one.

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/infra"
	"github.com/Disi3664/sistema-multas/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("multas_test"),
		tcPostgres.WithUsername("multas"),
		tcPostgres.WithPassword("multas"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)

	// Apply the real migrations in order.
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.up.sql"))
	require.NoError(t, err)
	sort.Strings(files)
	for _, f := range files {
		sql, err := os.ReadFile(f)
		require.NoError(t, err)
		require.NoError(t, db.Exec(string(sql)).Error, f)
	}

	return db
}

func seedEmpresa(t *testing.T, db *gorm.DB, nombre, cif string) *model.Empresa {
	t.Helper()
	e := &model.Empresa{
		Nombre:        nombre,
		CIF:           cif,
		Email:         cif + "@test.local",
		PrecioGestion: decimal.NewFromInt(15),
		PrecioRecurso: decimal.NewFromInt(150),
		Activo:        true,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

func TestFindByMatricula_DeterministicOnAmbiguousPlates(t *testing.T) {
	db := setupDB(t)
	repo := NewEmpresaRepository(db)
	vehiculos := NewVehiculoRepository(db)
	ctx := context.Background()

	primera := seedEmpresa(t, db, "Primera SL", "B11111111")
	time.Sleep(10 * time.Millisecond) // distinct created_at
	segunda := seedEmpresa(t, db, "Segunda SL", "B22222222")

	for _, e := range []*model.Empresa{primera, segunda} {
		require.NoError(t, vehiculos.Create(ctx, &model.Vehiculo{
			EmpresaID: e.ID, Matricula: "1234ABC", Activo: true,
		}))
	}

	n, err := repo.CountByMatricula(ctx, "1234ABC")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Same answer every time: the earliest-registered empresa.
	for i := 0; i < 3; i++ {
		found, err := repo.FindByMatricula(ctx, nil, "1234ABC")
		require.NoError(t, err)
		assert.Equal(t, primera.ID, found.ID)
	}
}

func TestListFacturables_EligibilityPredicate(t *testing.T) {
	db := setupDB(t)
	repo := NewMultaRepository(db)
	ctx := context.Background()

	empresa := seedEmpresa(t, db, "Facturable SL", "B33333333")
	inicio := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	dentro := inicio.AddDate(0, 0, 14)
	fuera := fin.AddDate(0, 0, 10)

	mk := func(exp string, facturada bool, comunicada *time.Time) {
		m := &model.Multa{
			EmpresaID:                  empresa.ID,
			NumeroExpediente:           exp,
			Matricula:                  "1234ABC",
			FechaInfraccion:            inicio,
			OrganismoEmisor:            "DGT",
			ImporteMulta:               decimal.NewFromInt(100),
			ImporteGestion:             decimal.NewFromInt(15),
			Estado:                     model.EstadoConductorIdentificado,
			Facturada:                  facturada,
			FechaComunicacionOrganismo: comunicada,
		}
		require.NoError(t, repo.Create(ctx, nil, m))
	}

	mk("EXP-1", true, &dentro)  // eligible
	mk("EXP-2", false, &dentro) // not billed
	mk("EXP-3", true, &fuera)   // outside period
	mk("EXP-4", true, nil)      // never communicated

	eligible, err := repo.ListFacturables(ctx, empresa.ID, inicio, fin)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, "EXP-1", eligible[0].NumeroExpediente)
}

func TestListPendingRetries(t *testing.T) {
	db := setupDB(t)
	repo := NewMultaRepository(db)
	ctx := context.Background()

	empresa := seedEmpresa(t, db, "Retry SL", "B44444444")
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	mk := func(exp, estado string, next *time.Time) {
		m := &model.Multa{
			EmpresaID:        empresa.ID,
			NumeroExpediente: exp,
			Matricula:        "1234ABC",
			FechaInfraccion:  time.Now(),
			OrganismoEmisor:  "DGT",
			ImporteMulta:     decimal.NewFromInt(100),
			ImporteGestion:   decimal.NewFromInt(15),
			Estado:           estado,
			NextRetryAt:      next,
		}
		require.NoError(t, repo.Create(ctx, nil, m))
	}

	mk("EXP-DUE", model.EstadoPendienteIdentificacion, &past)
	mk("EXP-NOT-YET", model.EstadoPendienteIdentificacion, &future)
	mk("EXP-NO-RETRY", model.EstadoPendienteIdentificacion, nil)
	mk("EXP-DONE", model.EstadoConductorIdentificado, &past)

	due, err := repo.ListPendingRetries(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "EXP-DUE", due[0].NumeroExpediente)
}

func TestGenerarFacturasMes(t *testing.T) {
	db := setupDB(t)
	multas := NewMultaRepository(db)
	facturas := NewFacturaRepository(db)
	ctx := context.Background()

	empresa := seedEmpresa(t, db, "Mensual SL", "B55555555")
	comunicada := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

	m := &model.Multa{
		EmpresaID:                  empresa.ID,
		NumeroExpediente:           "EXP-FAC-1",
		Matricula:                  "1234ABC",
		FechaInfraccion:            comunicada,
		OrganismoEmisor:            "DGT",
		ImporteMulta:               decimal.NewFromInt(100),
		ImporteGestion:             decimal.NewFromInt(15),
		Estado:                     model.EstadoConductorIdentificado,
		FechaComunicacionOrganismo: &comunicada,
	}
	require.NoError(t, multas.Create(ctx, nil, m))

	require.NoError(t, facturas.GenerarMes(ctx, 7, 2026))

	generated, err := facturas.ListByPeriodo(ctx, 7, 2026)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.True(t, generated[0].BaseImponible.Equal(decimal.NewFromInt(15)))
	assert.True(t, generated[0].Total.Equal(decimal.NewFromFloat(18.15)), "21%% IVA applied")

	// The covered multa is now marked billed.
	billed, err := multas.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, billed.Facturada)

	// Re-running the month is a no-op.
	require.NoError(t, facturas.GenerarMes(ctx, 7, 2026))
	again, err := facturas.ListByPeriodo(ctx, 7, 2026)
	require.NoError(t, err)
	assert.Len(t, again, 1)

	// And the standard listing sees it too.
	listed, err := facturas.List(ctx, dto.FacturaFilter{EmpresaID: empresa.ID.String()})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
