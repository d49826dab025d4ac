package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"availability-service/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SettingsCache — redis-кэш времён заезда/выезда поверх репозитория.
// Значение хранится как "HH:MM|HH:MM"; промах читает базу и прогревает ключ.
type SettingsCache struct {
	client *redis.Client
	repo   repository.SettingsRepo
	ttl    time.Duration
	log    *zap.Logger
}

func NewSettingsCache(addr, password string, db int, ttl time.Duration, repo repository.SettingsRepo, log *zap.Logger) (*SettingsCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))

	return &SettingsCache{
		client: rdb,
		repo:   repo,
		ttl:    ttl,
		log:    log,
	}, nil
}

func (c *SettingsCache) Close() error {
	return c.client.Close()
}

func settingsKey(hotelID uuid.UUID) string {
	return fmt.Sprintf("hotel_settings:%s", hotelID)
}

func (c *SettingsCache) GetCheckInOut(ctx context.Context, hotelID uuid.UUID) (string, string, error) {
	key := settingsKey(hotelID)

	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		parts := strings.SplitN(val, "|", 2)
		if len(parts) == 2 {
			return parts[0], parts[1], nil
		}
	} else if err != redis.Nil {
		// redis недоступен — не повод ронять запись, идём в базу
		c.log.Warn("settings cache read failed", zap.Error(err))
	}

	checkIn, checkOut := "15:00", "11:00"
	s, err := c.repo.Get(ctx, hotelID)
	if err != nil {
		return "", "", err
	}
	if s != nil {
		checkIn, checkOut = s.CheckInTime, s.CheckOutTime
	}

	if err := c.client.Set(ctx, key, checkIn+"|"+checkOut, c.ttl).Err(); err != nil {
		c.log.Warn("settings cache write failed", zap.Error(err))
	}
	return checkIn, checkOut, nil
}

// Invalidate сбрасывает ключ после изменения настроек отеля
func (c *SettingsCache) Invalidate(ctx context.Context, hotelID uuid.UUID) error {
	return c.client.Del(ctx, settingsKey(hotelID)).Err()
}
