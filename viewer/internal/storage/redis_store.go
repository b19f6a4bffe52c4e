package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/override"
)

var ErrSummaryNotFound = errors.New("summary not found")

// RedisStore caches the current summaries of loaded experiments, one hash
// per slot. It listens for overrides so the cache follows manual edits.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisStore(client *redis.Client, ttl, timeout time.Duration, logger *zap.Logger) *RedisStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		timeout: timeout,
		logger:  logging.OrNop(logger).Named("redis"),
	}
}

func summaryKey(experimentID string, slot experiment.Slot) string {
	return fmt.Sprintf("experiment:%s:summary:%s", experimentID, slot)
}

func experimentPattern(experimentID string) string {
	return fmt.Sprintf("experiment:%s:*", experimentID)
}

// SetSummaries writes all slots of exp.
func (r *RedisStore) SetSummaries(ctx context.Context, exp *experiment.Experiment) error {
	pipe := r.client.TxPipeline()
	for _, slot := range experiment.Slots {
		key := summaryKey(exp.ID(), slot)
		pipe.HSet(ctx, key, summaryFields(exp.Summary(slot)))
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache summaries: %w", err)
	}
	return nil
}

// SetSummary writes one slot.
func (r *RedisStore) SetSummary(ctx context.Context, experimentID string, slot experiment.Slot, s channel.Summary) error {
	key := summaryKey(experimentID, slot)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, summaryFields(s))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSummary(ctx context.Context, experimentID string, slot experiment.Slot) (channel.Summary, error) {
	data, err := r.client.HGetAll(ctx, summaryKey(experimentID, slot)).Result()
	if err != nil {
		return channel.Summary{}, fmt.Errorf("failed to get summary: %w", err)
	}
	if len(data) == 0 {
		return channel.Summary{}, fmt.Errorf("%w: %s/%s", ErrSummaryNotFound, experimentID, slot)
	}
	return parseSummaryFields(data), nil
}

// ExperimentSummaries returns every cached slot of an experiment keyed by
// channel name. A missing slot fails the whole lookup.
func (r *RedisStore) ExperimentSummaries(ctx context.Context, experimentID string) (map[string]channel.Summary, error) {
	out := make(map[string]channel.Summary, len(experiment.Slots))
	for _, slot := range experiment.Slots {
		s, err := r.GetSummary(ctx, experimentID, slot)
		if err != nil {
			return nil, err
		}
		out[slot.String()] = s
	}
	return out, nil
}

// DeleteExperiment removes every key of an experiment.
func (r *RedisStore) DeleteExperiment(ctx context.Context, experimentID string) error {
	iter := r.client.Scan(ctx, 0, experimentPattern(experimentID), 0).Iterator()
	pipe := r.client.Pipeline()

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// OverrideCommitted implements override.Listener.
func (r *RedisStore) OverrideCommitted(exp *experiment.Experiment, ref *override.Refresh) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.SetSummary(ctx, exp.ID(), ref.Slot, ref.Summary); err != nil {
		r.logger.Warn("failed to cache override",
			zap.String("experiment", exp.ID()),
			zap.String("axis", ref.AxisName),
			zap.Error(err),
		)
	}
}

// ExperimentLoaded caches the detected summaries of a freshly loaded experiment.
func (r *RedisStore) ExperimentLoaded(ctx context.Context, exp *experiment.Experiment) {
	if err := r.SetSummaries(ctx, exp); err != nil {
		r.logger.Warn("failed to cache summaries", zap.String("experiment", exp.ID()), zap.Error(err))
	}
}

// ExperimentCleared drops every cached key of an experiment.
func (r *RedisStore) ExperimentCleared(ctx context.Context, experimentID string) {
	if err := r.DeleteExperiment(ctx, experimentID); err != nil {
		r.logger.Warn("failed to drop cached summaries", zap.String("experiment", experimentID), zap.Error(err))
	}
}

func summaryFields(s channel.Summary) map[string]interface{} {
	return map[string]interface{}{
		"peak_index":         s.PeakIndex,
		"rise_start_index":   s.RiseStartIndex,
		"rise_end_index":     s.RiseEndIndex,
		"peak_velocity":      s.PeakVelocity,
		"time_to_peak":       s.TimeToPeak,
		"decel_time":         s.DecelTime,
		"fwhm":               s.FWHM,
		"delta_t":            s.DeltaT,
		"rise_to_peak_slope": s.RiseToPeakSlope,
		"peak_user_selected": s.PeakUserSelected,
	}
}

func parseSummaryFields(data map[string]string) channel.Summary {
	var s channel.Summary
	s.PeakIndex, _ = strconv.Atoi(data["peak_index"])
	s.RiseStartIndex, _ = strconv.Atoi(data["rise_start_index"])
	s.RiseEndIndex, _ = strconv.Atoi(data["rise_end_index"])
	s.PeakVelocity, _ = strconv.ParseFloat(data["peak_velocity"], 64)
	s.TimeToPeak, _ = strconv.ParseFloat(data["time_to_peak"], 64)
	s.DecelTime, _ = strconv.ParseFloat(data["decel_time"], 64)
	s.FWHM, _ = strconv.ParseFloat(data["fwhm"], 64)
	s.DeltaT, _ = strconv.ParseFloat(data["delta_t"], 64)
	s.RiseToPeakSlope, _ = strconv.ParseFloat(data["rise_to_peak_slope"], 64)
	// go-redis stores bools as "1"/"0"
	s.PeakUserSelected, _ = strconv.ParseBool(data["peak_user_selected"])
	return s
}
