package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLocked     = errors.New("una generazione è già in corso per questo mese")
	ErrInvalidOTP = errors.New("codice di verifica non valido")
)

// 只有持有者才能释放锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// 只有代数没有变化时才写入统计，计算期间发生的失效会让这次写入作废
var setStatsScript = redis.NewScript(`
local gen = redis.call("get", KEYS[2])
if (gen or "0") ~= ARGV[1] then
	return 0
end
redis.call("set", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

type Cache struct {
	client   *redis.Client
	lockTTL  time.Duration
	statsTTL time.Duration
}

func New(client *redis.Client, lockTTL, statsTTL time.Duration) *Cache {
	return &Cache{
		client:   client,
		lockTTL:  lockTTL,
		statsTTL: statsTTL,
	}
}

func lockKey(month domain.Month) string {
	return fmt.Sprintf("turni:lock:generate:%s", month)
}

func statsKey(month domain.Month) string {
	return fmt.Sprintf("turni:stats:%s", month)
}

func statsGenKey(month domain.Month) string {
	return fmt.Sprintf("turni:stats:gen:%s", month)
}

func otpKey(purpose, username string) string {
	return fmt.Sprintf("otp_%s_%s", username, purpose)
}

/**
 * LockMonth 使用 SET NX 为某个月份加锁，多个副本同时生成同一个月份时只有一个能成功
 * 返回的 release 函数可以重复调用，锁过期后不会误删别人的锁
 */
func (c *Cache) LockMonth(ctx context.Context, month domain.Month) (func(), error) {
	token := uuid.NewString()
	key := lockKey(month)

	ok, err := c.client.SetNX(ctx, key, token, c.lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	release := func() {
		// 请求的 context 可能已经取消，这里单独给一个超时
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, c.client, []string{key}, token)
	}

	return release, nil
}

// GetStats 第二个返回值表示是否命中缓存
func (c *Cache) GetStats(ctx context.Context, month domain.Month) ([]domain.WorkerStats, bool, error) {
	data, err := c.client.Get(ctx, statsKey(month)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var stats []domain.WorkerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		// 缓存内容损坏时当作未命中
		return nil, false, nil
	}

	return stats, true, nil
}

// StatsGeneration 返回该月份统计缓存的代数，每次失效加一，从未失效过为 0
func (c *Cache) StatsGeneration(ctx context.Context, month domain.Month) (int64, error) {
	gen, err := c.client.Get(ctx, statsGenKey(month)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

/**
 * SetStats 写入统计缓存，gen 必须是开始计算之前读到的代数
 * 代数已经变化时不写入，返回 false
 */
func (c *Cache) SetStats(ctx context.Context, month domain.Month, gen int64, stats []domain.WorkerStats) (bool, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return false, err
	}

	keys := []string{statsKey(month), statsGenKey(month)}
	stored, err := setStatsScript.Run(ctx, c.client, keys, strconv.FormatInt(gen, 10), data, c.statsTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}

	return stored == 1, nil
}

// InvalidateStats 在该月份的班次发生任何写入后调用
func (c *Cache) InvalidateStats(ctx context.Context, month domain.Month) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, statsKey(month))
		pipe.Incr(ctx, statsGenKey(month))
		return nil
	})
	return err
}

func (c *Cache) SetOTP(ctx context.Context, purpose, username, otp string, ttl time.Duration) error {
	return c.client.Set(ctx, otpKey(purpose, username), otp, ttl).Err()
}

// ConsumeOTP 校验成功后删除验证码，同一个验证码只能使用一次
func (c *Cache) ConsumeOTP(ctx context.Context, purpose, username, otp string) error {
	key := otpKey(purpose, username)

	stored, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidOTP
		}
		return err
	}

	if stored != otp {
		return ErrInvalidOTP
	}

	return c.client.Del(ctx, key).Err()
}
