package bootstrap

import (
	"github.com/kedr891/skin-portfolio/config"
	"github.com/kedr891/skin-portfolio/pkg/redis"
)

// InitCache - nil без ошибки, если Redis не настроен
func InitCache(cfg *config.Config) (*redis.Redis, error) {
	if !cfg.RedisEnabled() {
		return nil, nil
	}

	return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}
