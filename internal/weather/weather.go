// Package weather provides the forecast lookup used by the planner demo.
package weather

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/pocketomega/pocket-agent/internal/config"
)

// Forecaster returns a short forecast description for a city on a date.
type Forecaster interface {
	Forecast(ctx context.Context, date, city string) (string, error)
}

// Conditions are the forecasts Random picks from.
var Conditions = []string{"sunny", "rainy", "cloudy", "snowy"}

// Random picks one of Conditions regardless of date and city.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random seeded with seed. Equal seeds give equal
// sequences.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Forecast implements Forecaster.
func (r *Random) Forecast(_ context.Context, _, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Conditions[r.rng.IntN(len(Conditions))], nil
}

// FromEnv returns the MCP forecaster when WEATHER_MCP_CONFIG is set and a
// randomly seeded Random otherwise. The returned Closer must be closed when
// the forecaster is no longer needed.
func FromEnv(ctx context.Context) (Forecaster, io.Closer, error) {
	path := strings.TrimSpace(config.String("WEATHER_MCP_CONFIG", ""))
	if path == "" {
		return NewRandom(rand.Uint64()), nopCloser{}, nil
	}

	servers, err := LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := pickServer(servers, config.String("WEATHER_MCP_SERVER", ""))
	if err != nil {
		return nil, nil, err
	}
	m, err := DialMCP(ctx, cfg, config.String("WEATHER_MCP_TOOL", DefaultTool))
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[Weather] Using MCP server %q tool %q", cfg.Name, m.tool)
	return m, m, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
