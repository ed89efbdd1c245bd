// internal/publish/publish.go
package publish

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tamzrod/evms-monitor/internal/config"
	"github.com/tamzrod/evms-monitor/internal/status"
)

// Tx is one atomic batch of redis commands.
type Tx interface {
	HSet(ctx context.Context, key string, fields map[string]string)
	Publish(ctx context.Context, channel, message string)
	Exec(ctx context.Context) error
}

// Target opens batches.
type Target interface {
	Begin() Tx
}

// Publisher mirrors snapshots into a redis hash and announces each changed
// field on a pub/sub channel.
type Publisher struct {
	target  Target
	key     string
	channel string

	prev map[string]string
}

func New(target Target, key, channel string) *Publisher {
	return &Publisher{target: target, key: key, channel: channel}
}

// Export writes the snapshot. Nothing is sent when no field changed.
// A failed batch is retried in full by the next call.
func (p *Publisher) Export(ctx context.Context, s status.Snapshot) error {
	fields := Fields(s)

	var changed []string
	for name, v := range fields {
		if old, ok := p.prev[name]; !ok || old != v {
			changed = append(changed, name)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	sort.Strings(changed)

	tx := p.target.Begin()
	tx.HSet(ctx, p.key, fields)
	if p.channel != "" {
		for _, name := range changed {
			tx.Publish(ctx, p.channel, name)
		}
	}
	if err := tx.Exec(ctx); err != nil {
		return fmt.Errorf("publish: exec %s: %w", p.key, err)
	}

	p.prev = fields
	return nil
}

// Fields flattens a snapshot into hash fields.
func Fields(s status.Snapshot) map[string]string {
	u := func(v uint16) string { return strconv.FormatUint(uint64(v), 10) }
	return map[string]string{
		"health":           u(s.Health),
		"fault":            u(s.LastErrorCode),
		"seconds-in-error": u(s.SecondsInError),
		"core-state":       u(s.CoreState),
		"core":             u(s.CoreHealth),
		"current-sensor":   u(s.CurrentHealth),
		"motor-controller": u(s.MCHealth),
		"charger":          u(s.ChargerHealth),
		"modules-live":     u(s.ModulesLive),
		"modules-stale":    u(s.ModulesStale),
		"pack-voltage":     u(s.PackVoltage),
		"current":          strconv.Itoa(int(s.Current)),
		"power":            u(s.Power),
		"soc":              u(s.SoC),
		"amp-hours":        strconv.Itoa(int(s.AmpHours)),
		"aux-voltage":      u(s.AuxVoltage),
		"temperature":      u(s.Temperature),
		"cells":            u(s.Cells),
		"cell-min":         u(s.CellMin),
		"cell-max":         u(s.CellMax),
		"cell-avg":         u(s.CellAvg),
		"rx-dropped":       u(s.RxDropped),
	}
}

// ------------------------------------------------------------
// redis target
// ------------------------------------------------------------

type redisTarget struct {
	client *redis.Client
}

type redisTx struct {
	pipe redis.Pipeliner
}

func (t redisTarget) Begin() Tx { return redisTx{pipe: t.client.TxPipeline()} }

func (x redisTx) HSet(ctx context.Context, key string, fields map[string]string) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	x.pipe.HSet(ctx, key, values)
}

func (x redisTx) Publish(ctx context.Context, channel, message string) {
	x.pipe.Publish(ctx, channel, message)
}

func (x redisTx) Exec(ctx context.Context) error {
	_, err := x.pipe.Exec(ctx)
	return err
}

// Dial connects to redis and checks the connection.
func Dial(ctx context.Context, c config.RedisExport) (*Publisher, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("publish: connect %s: %w", c.Addr, err)
	}

	return New(redisTarget{client: client}, c.Key, c.Channel), client.Close, nil
}
