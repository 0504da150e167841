package client_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp/fasthttputil"
	"gorm.io/gorm"

	"gochicken/internal/app"
	"gochicken/internal/client"
	"gochicken/internal/model"
	"gochicken/internal/staging"
	"gochicken/internal/ws"
	"gochicken/pkg/config"
	"gochicken/pkg/database"
)

// newTestClient serves the real API over an in-memory listener backed by a seeded sqlite file.
func newTestClient(t *testing.T) (*client.Client, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "gochicken.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, app.Migrate(db))
	require.NoError(t, app.SeedDemo(db, zerolog.Nop()))

	hub := ws.NewHub(zerolog.Nop())
	go hub.Run()

	server := app.New(app.Deps{DB: db, Hub: hub, Log: zerolog.Nop(), AppName: "test", LowStockThreshold: 10})
	ln := fasthttputil.NewInmemoryListener()
	go server.Listener(ln)

	t.Cleanup(func() {
		server.Shutdown()
		hub.Stop()
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	c := client.New("http://gochicken.test",
		client.WithOperator("kasir-test"),
		client.WithDialer(func(string) (net.Conn, error) { return ln.Dial() }),
	)
	return c, db
}

func demoBranch(t *testing.T, c *client.Client) client.Branch {
	t.Helper()
	branches, err := c.ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 1)
	return branches[0]
}

func TestClient_FetchStocks(t *testing.T) {
	c, _ := newTestClient(t)
	branch := demoBranch(t, c)
	assert.Equal(t, "JKT-01", branch.Code)

	rows, err := c.FetchStocks(context.Background(), branch.ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Ayam Goreng Dada", rows[0].ProductName)
	assert.Equal(t, int64(18000), rows[0].Price)
	for _, r := range rows {
		assert.Equal(t, branch.ID, r.BranchID)
		assert.Equal(t, 20, r.Quantity)
	}
}

func TestClient_UpdateStockErrors(t *testing.T) {
	c, _ := newTestClient(t)
	branch := demoBranch(t, c)
	rows, err := c.FetchStocks(context.Background(), branch.ID)
	require.NoError(t, err)

	err = c.UpdateStock(context.Background(), staging.StockUpdate{ID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "stock not found")

	err = c.UpdateStock(context.Background(), staging.StockUpdate{ID: rows[0].ID, Quantity: -1})
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "400")

	_, err = c.FetchStocks(context.Background(), uuid.New())
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)
}

func TestClient_CancelledContextSendsNothing(t *testing.T) {
	c, db := newTestClient(t)
	branch := demoBranch(t, c)
	rows, err := c.FetchStocks(context.Background(), branch.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.UpdateStock(ctx, staging.StockUpdate{ID: rows[0].ID, Quantity: 3})
	assert.ErrorIs(t, err, context.Canceled)

	var count int64
	require.NoError(t, db.Model(&model.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionOverHTTP_CommitAndRefetch(t *testing.T) {
	c, db := newTestClient(t)
	branch := demoBranch(t, c)

	s := staging.NewSession(c, branch.ID)
	require.NoError(t, s.Refresh(context.Background()))
	rows := s.Rows()

	for i := 0; i < 2; i++ {
		_, err := s.Stage(rows[0].ID, 1)
		require.NoError(t, err)
	}
	_, err := s.Stage(rows[1].ID, -3)
	require.NoError(t, err)
	_, err = s.Stage(rows[2].ID, 1)
	require.NoError(t, err)
	_, err = s.Stage(rows[2].ID, -1)
	require.NoError(t, err)

	changes, err := s.Review()
	require.NoError(t, err)
	require.Len(t, changes, 2)

	require.NoError(t, s.Commit(context.Background()))
	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, staging.StateIdle, s.State())

	after := s.Rows()
	assert.Equal(t, 22, after[0].Quantity)
	assert.Equal(t, 17, after[1].Quantity)
	assert.Equal(t, 20, after[2].Quantity)

	var movements []model.StockMovement
	require.NoError(t, db.Find(&movements).Error)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, "kasir-test", m.CreatedBy)
	}
}
