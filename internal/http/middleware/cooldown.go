package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

// pruneThreshold is how many subjects are tracked before idle ones are dropped.
const pruneThreshold = 1024

type subjectLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Cooldown admits one request per authenticated subject every period.
// It must run after RequireAuth; requests without an identity pass through.
// A request answered with a 4xx or 5xx gives its slot back, so only
// answered checks count against the subject.
type Cooldown struct {
	period time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	subjects map[string]*subjectLimiter
}

func NewCooldown(period time.Duration, logger *slog.Logger) *Cooldown {
	return &Cooldown{
		period:   period,
		logger:   logger,
		now:      time.Now,
		subjects: make(map[string]*subjectLimiter),
	}
}

// reserve takes uid's slot. It reports how long uid must wait before its
// next request is admitted; zero means the request is admitted now and
// the returned reservation holds the slot, taken at the returned time.
func (c *Cooldown) reserve(uid string) (*rate.Reservation, time.Time, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.subjects) >= pruneThreshold {
		for key, s := range c.subjects {
			if now.Sub(s.lastSeen) > c.period {
				delete(c.subjects, key)
			}
		}
	}

	s, ok := c.subjects[uid]
	if !ok {
		s = &subjectLimiter{limiter: rate.NewLimiter(rate.Every(c.period), 1)}
		c.subjects[uid] = s
	}
	s.lastSeen = now

	res := s.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		return nil, now, delay
	}
	return res, now, 0
}

func (c *Cooldown) Handler(next http.Handler) http.Handler {
	if c.period <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.FromContext(r.Context())
		if id == nil {
			next.ServeHTTP(w, r)
			return
		}

		res, reservedAt, delay := c.reserve(id.UID)
		if delay <= 0 {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				// Cancelling at the reservation time restores the token
				// even though the reservation has already been used.
				res.CancelAt(reservedAt)
			}
			return
		}

		seconds := int(math.Ceil(delay.Round(time.Millisecond).Seconds()))
		c.logger.InfoContext(r.Context(), "vip check throttled",
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.String("uid", id.UID),
			slog.Int("retry_after_seconds", seconds))

		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		_ = response.WriteJSON(w, http.StatusTooManyRequests, types.CheckVIPResponse{
			IsVIP:   false,
			Message: fmt.Sprintf("Please wait %d seconds before trying again.", seconds),
		})
	})
}
