package services

import (
	"context"
	"time"

	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/parishworks/parish-ledger/pkg/redis"
)

type HealthStatus struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

type HealthService struct {
	db    *pg.DB
	redis redis.RedisAdapter
}

// NewHealthService checks db and redis; redis may be nil.
func NewHealthService(db *pg.DB, r redis.RedisAdapter) *HealthService {
	return &HealthService{db: db, redis: r}
}

func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := &HealthStatus{Status: "ok", Checks: map[string]string{}, CheckedAt: time.Now().UTC()}
	if err := s.db.Ping(ctx); err != nil {
		st.Status = "degraded"
		st.Checks["database"] = err.Error()
	} else {
		st.Checks["database"] = "ok"
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			st.Status = "degraded"
			st.Checks["redis"] = err.Error()
		} else {
			st.Checks["redis"] = "ok"
		}
	}
	return st
}
