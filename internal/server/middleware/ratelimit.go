package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iudanet/babysteps/internal/server/metrics"
)

// RateLimiter ограничивает частоту запросов по IP (token bucket из x/time/rate)
type RateLimiter struct {
	limiters map[string]*ipLimiter
	trusted  []netip.Prefix
	logger   *slog.Logger
	rec      metrics.Recorder
	cleanupC chan struct{}
	limit    rate.Limit
	burst    int
	window   time.Duration
	mu       sync.Mutex
}

// ipLimiter хранит limiter конкретного IP и время последнего обращения
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithTrustedProxies lets X-Forwarded-For / X-Real-IP decide the client address,
// but only for requests whose RemoteAddr is inside one of the prefixes.
func WithTrustedProxies(prefixes []netip.Prefix) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.trusted = prefixes
	}
}

// NewRateLimiter создает новый rate limiter
// requests - максимальное количество запросов за window, они же размер burst
// Без WithTrustedProxies ключом всегда служит адрес TCP соединения
func NewRateLimiter(requests int, window time.Duration, logger *slog.Logger, rec metrics.Recorder, opts ...RateLimiterOption) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		logger:   logger,
		rec:      rec,
		cleanupC: make(chan struct{}),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
	}
	for _, opt := range opts {
		opt(rl)
	}

	// Запускаем периодическую очистку неактивных limiters
	go rl.cleanup()

	return rl
}

// cleanup периодически удаляет неактивные limiters для экономии памяти
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeIdle(time.Now())
		case <-rl.cleanupC:
			return
		}
	}
}

func (rl *RateLimiter) removeIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, l := range rl.limiters {
		if now.Sub(l.lastAccess) > rl.window*2 {
			delete(rl.limiters, key)
		}
	}
}

// Stop останавливает cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.cleanupC)
}

// Allow проверяет, разрешен ли запрос для данного ключа (обычно IP адрес)
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[key]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = l
	}
	l.lastAccess = time.Now()
	rl.mu.Unlock()

	return l.limiter.Allow()
}

// Middleware возвращает middleware, отклоняющий лишние запросы с 429 и Retry-After
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientIP(r)

		if !rl.Allow(key) {
			rl.rec.RecordRateLimited(r.URL.Path)
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			retryAfter := int(math.Ceil(1 / float64(rl.limit)))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP возвращает адрес клиента для ключа limiter'а
// Заголовки прокси учитываются только если соединение пришло от доверенного прокси;
// X-Forwarded-For разбирается справа налево до первого недоверенного адреса
func (rl *RateLimiter) clientIP(r *http.Request) string {
	remote := remoteHost(r)

	addr, err := netip.ParseAddr(remote)
	if err != nil || !rl.isTrusted(addr) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				// мусор в цепочке: дальше доверять нельзя
				return remote
			}
			if !rl.isTrusted(hop) {
				return hop.String()
			}
		}
		return remote
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}

	return remote
}

func (rl *RateLimiter) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range rl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// remoteHost возвращает IP из RemoteAddr без порта
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
