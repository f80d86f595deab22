package app

import (
	"strings"
	"time"

	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/utils"
)

type Config struct {
	HTTPAddr     string
	AllowOrigins []string

	// "local" runs the organization participant in-process; "redis" sends
	// organization commands over the bus.
	OrgParticipantMode string

	RedisEnabled bool

	// SweepInterval of 0 disables the stuck-run sweeper. SweepStuckAfter
	// must exceed the longest saga this process runs.
	SweepInterval   time.Duration
	SweepStuckAfter time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	addr := utils.GetEnv("HTTP_ADDR", ":8080", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	orgMode := utils.GetEnv("ORG_PARTICIPANT_MODE", "local", log)
	redisEnabled := utils.GetEnv("REDIS_ENABLED", "false", log)
	sweepInterval := utils.GetEnvAsInt("SAGA_SWEEP_INTERVAL_SECONDS", 60, log)
	sweepStuckAfter := utils.GetEnvAsInt("SAGA_SWEEP_STUCK_AFTER_SECONDS", 300, log)
	return Config{
		HTTPAddr:           addr,
		AllowOrigins:       strings.Split(origins, ","),
		OrgParticipantMode: orgMode,
		RedisEnabled:       strings.EqualFold(redisEnabled, "true"),
		SweepInterval:      time.Duration(sweepInterval) * time.Second,
		SweepStuckAfter:    time.Duration(sweepStuckAfter) * time.Second,
	}
}
