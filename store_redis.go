package interact

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "interact:session:"

// Hash fields, named after the browser storage keys they replace.
const (
	fieldSessionID    = "sessionId"
	fieldSSID         = "ssId"
	fieldTimestamp    = "ssTs"
	fieldAudienceID   = "audId"
	fieldToken        = "m_tokenId"
	fieldTokenExpires = "m_tokenExp"
)

// RedisStore keeps each visitor's SessionState in a hash that expires after
// ttl without writes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store on client. A zero ttl keeps keys forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix, ttl: ttl}
}

// WithPrefix changes the key prefix.
func (r *RedisStore) WithPrefix(prefix string) *RedisStore {
	r.prefix = prefix
	return r
}

// WaitReady pings redis until it answers, backing off between attempts. It
// gives up when ctx ends and returns the last ping error.
func (r *RedisStore) WaitReady(ctx context.Context) error {
	b := newBackoff()
	for {
		err := r.client.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		if werr := b.wait(ctx); werr != nil {
			return err
		}
	}
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

func (r *RedisStore) Load(ctx context.Context, key string) (SessionState, error) {
	fields, err := r.client.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return SessionState{}, err
	}
	return SessionState{
		SessionID:    fields[fieldSessionID],
		SSID:         fields[fieldSSID],
		Timestamp:    parseMillis(fields[fieldTimestamp]),
		AudienceID:   fields[fieldAudienceID],
		Token:        fields[fieldToken],
		TokenExpires: parseMillis(fields[fieldTokenExpires]),
	}, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, state SessionState) error {
	k := r.key(key)
	fields := map[string]interface{}{}
	setField := func(name, value string) {
		if value != "" {
			fields[name] = value
		}
	}
	setField(fieldSessionID, state.SessionID)
	setField(fieldSSID, state.SSID)
	setField(fieldTimestamp, formatMillis(state.Timestamp))
	setField(fieldAudienceID, state.AudienceID)
	setField(fieldToken, state.Token)
	setField(fieldTokenExpires, formatMillis(state.TokenExpires))

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(fields) == 0 {
			return nil
		}
		pipe.HSet(ctx, k, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	return err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func formatMillis(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
