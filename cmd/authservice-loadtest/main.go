// Command authservice-loadtest drives concurrent logins, 2FA verifications
// and token checks through an Engine backed by Redis session stores, and
// prints latency percentiles per phase.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/notify"
	"github.com/MrEthical07/authservice/stores/memory"
	redisstore "github.com/MrEthical07/authservice/stores/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const userPassword = "load-test-password"

type userState struct {
	email string
	// mu serializes logins per user so each verify sees its own code.
	mu sync.Mutex
}

func main() {
	var (
		users       = flag.Int("users", 200, "number of accounts to seed; every other one requires 2FA")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	recorder := notify.NewRecorder()
	engine, err := buildEngine(client, recorder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]userState, *users)
	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	for i := range states {
		states[i].email = fmt.Sprintf("user%d@load.test", i)
		if err := engine.Signup(ctx, states[i].email, userPassword, i%2 == 1); err != nil {
			fmt.Fprintf(os.Stderr, "signup failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	tokens := &tokenPool{}
	loginStats := runLoginPhase(ctx, engine, recorder, states, tokens, *ops, *concurrency)
	verifyStats := runVerifyPhase(ctx, engine, tokens, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("verify-token", verifyStats)

	fmt.Println("---- counters ----")
	if err := printCounters(ctx, engine); err != nil {
		fmt.Fprintf(os.Stderr, "collect counters: %v\n", err)
	}
}

func buildEngine(client redis.UniversalClient, recorder *notify.Recorder) (*authservice.Engine, error) {
	cfg := authservice.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("load-test-secret-load-test-secret")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true

	hasher, err := cfg.Password.Hasher()
	if err != nil {
		return nil, err
	}
	return authservice.New().
		WithConfig(cfg).
		WithUserStore(memory.NewUserStore(hasher)).
		WithBannedTokenStore(redisstore.NewBannedTokenStore(client, "")).
		WithTwoFACodeStore(redisstore.NewTwoFACodeStore(client, "", cfg.TwoFA.ChallengeTTL)).
		WithNotifier(recorder).
		WithRedis(client).
		Build()
}

type tokenPool struct {
	mu     sync.Mutex
	tokens []string
}

func (p *tokenPool) add(token string) {
	p.mu.Lock()
	p.tokens = append(p.tokens, token)
	p.mu.Unlock()
}

func (p *tokenPool) pick(r *rand.Rand) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) == 0 {
		return ""
	}
	return p.tokens[r.Intn(len(p.tokens))]
}

// runLoginPhase measures a full login: password check plus, for 2FA
// accounts, reading the sent code and verifying it.
func runLoginPhase(ctx context.Context, engine *authservice.Engine, recorder *notify.Recorder, states []userState, tokens *tokenPool, ops, concurrency int) phaseStats {
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
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				token, err := login(ctx, engine, recorder, state.email)
				d := time.Since(t0)
				state.mu.Unlock()

				if err != nil {
					atomic.AddInt64(&failures, 1)
				} else {
					tokens.add(token)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func login(ctx context.Context, engine *authservice.Engine, recorder *notify.Recorder, email string) (string, error) {
	res, err := engine.Login(ctx, email, userPassword)
	if err != nil {
		return "", err
	}
	if res.State == authservice.StateAuthenticated {
		return res.Token, nil
	}

	msg, ok := recorder.Last(account.MustParseEmail(email))
	if !ok {
		return "", fmt.Errorf("no code sent to %s", email)
	}
	res, err = engine.VerifyTwoFA(ctx, email, res.LoginAttemptID, msg.Body)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

func runVerifyPhase(ctx context.Context, engine *authservice.Engine, tokens *tokenPool, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				token := tokens.pick(r)
				t0 := time.Now()
				_, err := engine.VerifyToken(ctx, token)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
		return phaseStats{total: total}
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
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
