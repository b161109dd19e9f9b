package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
)

const (
	cacheAppointment = "appointment"
	cacheList        = "appointment_list"
	cacheStats       = "doctor_stats"
)

// AppointmentCache is the typed read-through layer. Every store failure is
// logged and swallowed: a broken cache behaves like an empty one.
// A nil *AppointmentCache is valid and caches nothing.
type AppointmentCache struct {
	store   Store
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewAppointmentCache(store Store, ttl time.Duration, log *zap.Logger, m *metrics.Collector) *AppointmentCache {
	return &AppointmentCache{store: store, ttl: ttl, log: log, metrics: m}
}

func (c *AppointmentCache) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, bool) {
	var a appointment.Appointment
	if !c.get(ctx, cacheAppointment, AppointmentKey(id), &a) {
		return nil, false
	}
	return &a, true
}

func (c *AppointmentCache) SetAppointment(ctx context.Context, a *appointment.Appointment) {
	c.set(ctx, AppointmentKey(a.ID), a)
}

func (c *AppointmentCache) GetList(ctx context.Context, key string) (*appointment.PagedAppointments, bool) {
	var page appointment.PagedAppointments
	if !c.get(ctx, cacheList, key, &page) {
		return nil, false
	}
	return &page, true
}

func (c *AppointmentCache) SetList(ctx context.Context, key string, page *appointment.PagedAppointments) {
	c.set(ctx, key, page)
}

func (c *AppointmentCache) GetDoctorStats(ctx context.Context, doctorID uuid.UUID) (*appointment.DoctorStats, bool) {
	var s appointment.DoctorStats
	if !c.get(ctx, cacheStats, DoctorStatsKey(doctorID), &s) {
		return nil, false
	}
	return &s, true
}

func (c *AppointmentCache) SetDoctorStats(ctx context.Context, doctorID uuid.UUID, s *appointment.DoctorStats) {
	c.set(ctx, DoctorStatsKey(doctorID), s)
}

// Invalidate drops the appointment entry, every list entry of both owners
// and the doctor's statistics. Pass the previous owners too when a mutation
// could move the appointment between them.
func (c *AppointmentCache) Invalidate(ctx context.Context, appointmentID, patientID, doctorID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.store.Delete(ctx, AppointmentKey(appointmentID), DoctorStatsKey(doctorID)); err != nil {
		c.fail("delete", AppointmentKey(appointmentID), err)
	}
	for _, pattern := range []string{patientListPattern(patientID), doctorListPattern(doctorID)} {
		n, err := c.store.DeletePattern(ctx, pattern)
		if err != nil {
			c.fail("delete_pattern", pattern, err)
			continue
		}
		c.log.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("keys", n))
	}
}

func (c *AppointmentCache) get(ctx context.Context, name, key string, dst any) bool {
	if c == nil {
		return false
	}
	b, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		c.metrics.CacheRequests.WithLabelValues(name, "miss").Inc()
		return false
	case err != nil:
		c.fail("get", key, err)
		c.metrics.CacheRequests.WithLabelValues(name, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.fail("decode", key, err)
		c.metrics.CacheRequests.WithLabelValues(name, "miss").Inc()
		return false
	}
	c.metrics.CacheRequests.WithLabelValues(name, "hit").Inc()
	return true
}

func (c *AppointmentCache) set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.fail("encode", key, err)
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.fail("set", key, err)
	}
}

func (c *AppointmentCache) fail(op, key string, err error) {
	c.metrics.CacheErrors.WithLabelValues(op).Inc()
	c.log.Warn("cache operation failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
}
