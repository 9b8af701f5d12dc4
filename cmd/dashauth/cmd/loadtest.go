package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	browsers    int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd(a *app) *cobra.Command {
	opts := loadtestOptions{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure status checks against a Redis credential store",
		Long: `loadtest seeds browser namespaces with credentials and runs two phases:
status checks on valid sessions, then status checks that find an expired
token and clear it. Without --redis-addr an in-process Redis is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.browsers <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return fmt.Errorf("browsers, concurrency, and ops must be > 0")
			}
			return runLoadtest(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&opts.browsers, "browsers", 10000, "Number of browser namespaces to seed")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "Number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 50000, "Operations per phase")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address; an in-process Redis when empty")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "dashauth-load", "Key prefix")
	return cmd
}

func runLoadtest(ctx context.Context, a *app, opts loadtestOptions, out io.Writer) error {
	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	now := time.Now()
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{Secret: []byte("loadtest"), TTL: time.Hour})
	if err != nil {
		return err
	}

	backend := session.NewRedisBackend(client, opts.prefix, 24*time.Hour)
	engine, err := dashauth.New().
		WithConfig(*a.config).
		WithBackend(backend).
		WithLogger(a.logger).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()
	store := session.NewStore(backend, a.logger)

	fmt.Fprintf(out, "seeding %d browsers...\n", opts.browsers)
	start := time.Now()
	valid, err := seedBrowsers(ctx, engine, store, issuer, "valid", opts.browsers, now.Add(time.Hour))
	if err != nil {
		return err
	}
	expired, err := seedBrowsers(ctx, engine, store, issuer, "expired", opts.browsers, now.Add(-time.Minute))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(start).Round(time.Millisecond))

	validStats := runStatusPhase(ctx, valid, opts.ops, opts.concurrency, dashauth.ReasonValid)
	expiredStats := runStatusPhase(ctx, expired, opts.ops, opts.concurrency, dashauth.ReasonExpired)

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "status", validStats)
	printStats(out, "expire", expiredStats)
	return nil
}

// seedBrowsers writes credentials through store and returns engines bound to
// the same namespaces.
func seedBrowsers(ctx context.Context, engine *dashauth.Engine, store *session.Store, issuer *jwt.Issuer, group string, n int, exp time.Time) ([]*dashauth.Engine, error) {
	out := make([]*dashauth.Engine, n)
	for i := 0; i < n; i++ {
		namespace := group + "-" + strconv.Itoa(i)
		token, err := issuer.IssueUntil(int64(i+1), exp.Add(-time.Hour), exp)
		if err != nil {
			return nil, err
		}
		ns := store.WithNamespace(namespace)
		if err := ns.SetToken(ctx, token); err != nil {
			return nil, fmt.Errorf("seed %s: %w", namespace, err)
		}
		if err := ns.SetUser(ctx, dashauth.Profile{
			ID:        int64(i + 1),
			Username:  "user" + strconv.Itoa(i),
			Email:     "user" + strconv.Itoa(i) + "@example.com",
			Confirmed: true,
		}); err != nil {
			return nil, fmt.Errorf("seed %s: %w", namespace, err)
		}
		out[i] = engine.WithNamespace(namespace)
	}
	return out, nil
}

// runStatusPhase counts any status other than want as a failure. Expired
// sessions are cleared by their first check, so later checks on the same
// browser report no_token and are not failures.
func runStatusPhase(ctx context.Context, browsers []*dashauth.Engine, ops, concurrency int, want dashauth.StatusReason) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				browser := browsers[r.Intn(len(browsers))]
				t0 := time.Now()
				status := browser.Status(ctx)
				d := time.Since(t0)
				if !expectedReason(status.Reason, want) {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func expectedReason(got, want dashauth.StatusReason) bool {
	if got == want {
		return true
	}
	return want.TokenLapsed() && got == dashauth.ReasonNoToken
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
