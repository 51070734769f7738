package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-appointment-engine/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// RedisOpenSlotsKeyPrefix prefixes the cached effective-open slot list of a
	// (doctor, clinic, date).
	RedisOpenSlotsKeyPrefix = "availability:open:"

	// RedisOpenSlotsVersionKeyPrefix prefixes the invalidation counter of the
	// same (doctor, clinic, date). Every Invalidate increments it.
	RedisOpenSlotsVersionKeyPrefix = "availability:version:"

	// NoCacheVersion is returned by Get when the version could not be read.
	// Set ignores it.
	NoCacheVersion int64 = -1

	// Timeout for individual Redis operations
	redisCacheTimeout = 2 * time.Second

	// Upper bound on how long a cached view may live
	maxOpenSlotsTTL = 10 * time.Minute

	// Version counters must outlive any in-flight read-then-Set window.
	openSlotsVersionTTL = 24 * time.Hour
)

var errStaleOpenSlots = errors.New("open slots invalidated during load")

// AvailabilityCacheService caches the read-only open-slot view in Redis.
//
// The cache is never consulted for bookability: booking and matching always
// read PostgreSQL. Every write that changes the view invalidates the key and
// bumps its version, and Set only writes when the version it was handed by
// Get is still current, so a view loaded before a booking committed is
// dropped instead of cached.
// A nil client turns every call into a no-op miss.
type AvailabilityCacheService struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewAvailabilityCacheService(redisClient *redis.Client, log *logrus.Logger) *AvailabilityCacheService {
	return &AvailabilityCacheService{
		redisClient: redisClient,
		log:         log,
	}
}

// Get returns the cached open slots. ok is false on a miss or any Redis error.
// On a miss, version is the invalidation counter to hand back to Set once the
// view has been loaded from the database; it must be read before that load.
func (s *AvailabilityCacheService) Get(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (slots []entity.AvailabilitySlot, version int64, ok bool) {
	if s == nil || s.redisClient == nil {
		return nil, NoCacheVersion, false
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	key := openSlotsKey(doctorID, clinicID, date)
	pipe := s.redisClient.Pipeline()
	dataCmd := pipe.Get(ctx, key)
	versionCmd := pipe.Get(ctx, openSlotsVersionKey(doctorID, clinicID, date))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warnf("Failed to read open slots cache %s: %+v", key, err)
		return nil, NoCacheVersion, false
	}

	version, err := versionCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warnf("Corrupt open slots version for %s: %+v", key, err)
		version = NoCacheVersion
	}

	raw, err := dataCmd.Bytes()
	if err != nil {
		return nil, version, false
	}

	if err := json.Unmarshal(raw, &slots); err != nil {
		s.log.Warnf("Corrupt open slots cache %s, ignoring: %+v", key, err)
		return nil, version, false
	}
	return slots, version, true
}

// Set stores the open slots until the end of date (midnight starting the next
// day), capped at maxOpenSlotsTTL. The write is skipped when the version
// counter moved past version since Get read it.
func (s *AvailabilityCacheService) Set(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time, version int64, slots []entity.AvailabilitySlot) {
	if s == nil || s.redisClient == nil || version == NoCacheVersion {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	payload, err := json.Marshal(slots)
	if err != nil {
		s.log.Warnf("Failed to encode open slots: %+v", err)
		return
	}

	key := openSlotsKey(doctorID, clinicID, date)
	versionKey := openSlotsVersionKey(doctorID, clinicID, date)
	err = s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleOpenSlots
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, calculateTTL(date))
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		s.log.Debugf("Cached %d open slots at %s", len(slots), key)
	case errors.Is(err, errStaleOpenSlots), errors.Is(err, redis.TxFailedErr):
		s.log.Debugf("Skipped caching stale open slots at %s", key)
	default:
		s.log.Warnf("Failed to write open slots cache %s: %+v", key, err)
	}
}

// Invalidate drops the cached view and bumps its version so that any load
// already in flight cannot write its result back. Failures are logged; the
// TTL bounds staleness.
func (s *AvailabilityCacheService) Invalidate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) {
	if s == nil || s.redisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	key := openSlotsKey(doctorID, clinicID, date)
	versionKey := openSlotsVersionKey(doctorID, clinicID, date)
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, openSlotsVersionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		s.log.Warnf("Failed to invalidate open slots cache %s: %+v", key, err)
	}
}

func openSlotsKey(doctorID, clinicID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", RedisOpenSlotsKeyPrefix, doctorID, clinicID, date.Format(entity.DateLayout))
}

func openSlotsVersionKey(doctorID, clinicID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", RedisOpenSlotsVersionKeyPrefix, doctorID, clinicID, date.Format(entity.DateLayout))
}

// calculateTTL returns the time left until the end of date (midnight starting
// the next day), capped at maxOpenSlotsTTL. Past dates get a short TTL.
func calculateTTL(date time.Time) time.Duration {
	expireAt := date.AddDate(0, 0, 1)
	ttl := time.Until(expireAt)

	if ttl <= 0 {
		return 1 * time.Minute
	}
	if ttl > maxOpenSlotsTTL {
		return maxOpenSlotsTTL
	}
	return ttl
}
