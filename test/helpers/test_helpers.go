package helpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/parishworks/parish-ledger/internal/gl"
	"github.com/parishworks/parish-ledger/internal/model"
	"github.com/parishworks/parish-ledger/internal/repository"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/parishworks/parish-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory sqlite database with every table migrated.
// The pool is pinned to one connection so the memory database is shared.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))
	return pg.New(db, db)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	// adapters are cached by name, so every test gets its own
	connName := fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

// SeedCategories loads the default GL reference data.
func SeedCategories(t *testing.T, db *pg.DB) {
	t.Helper()
	repo := repository.NewCategoryRepository(db)
	require.NoError(t, repo.Seed(context.Background(), gl.DefaultIncomeCategories(), gl.DefaultExpenseCategories()))
}

func CreateTestMember(t *testing.T, db *pg.DB, m *model.Member) *model.Member {
	t.Helper()
	created, err := repository.NewMemberRepository(db).Create(context.Background(), m)
	require.NoError(t, err)
	return created
}

func CreateTestDependent(t *testing.T, db *pg.DB, d *model.Dependent) *model.Dependent {
	t.Helper()
	created, err := repository.NewMemberRepository(db).CreateDependent(context.Background(), d)
	require.NoError(t, err)
	return created
}

func CountRows(t *testing.T, db *pg.DB, entity any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Read(context.Background()).Model(entity).Count(&n).Error)
	return n
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
