package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "rt:"
	seqKey    = keyPrefix + "seq"
	expiryKey = keyPrefix + "exp"

	fieldID        = "id"
	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"

	// ключ живёт чуть дольше логического срока, основная чистка делается sweep-ом
	ttlGrace = time.Hour
)

// RedisRefreshTokenRepo keeps one hash per token, a per-user index set and
// a sorted set of "<user_id>:<token>" members scored by expiry in unix milliseconds.
type RedisRefreshTokenRepo struct {
	client *redis.Client
}

func NewRedisRefreshTokenRepo(client *redis.Client) *RedisRefreshTokenRepo {
	return &RedisRefreshTokenRepo{client: client}
}

func tokenKey(token string) string { return keyPrefix + "t:" + token }

func userKey(userID uint64) string { return keyPrefix + "u:" + strconv.FormatUint(userID, 10) }

func expiryMember(userID uint64, token string) string {
	return strconv.FormatUint(userID, 10) + ":" + token
}

func (r *RedisRefreshTokenRepo) Create(ctx context.Context, t model.RefreshToken) (model.RefreshToken, error) {
	exists, err := r.client.Exists(ctx, tokenKey(t.Token)).Result()
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	if exists > 0 {
		return model.RefreshToken{}, customErrors.ErrAlreadyExists
	}

	id, err := r.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	t.ID = uint64(id)
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, tokenKey(t.Token), map[string]interface{}{
			fieldID:        t.ID,
			fieldUserID:    t.UserID,
			fieldCreatedAt: t.CreatedAt.UnixNano(),
			fieldExpiresAt: t.ExpiresAt.UnixNano(),
		})
		p.Expire(ctx, tokenKey(t.Token), safeTTL(t))
		p.SAdd(ctx, userKey(t.UserID), t.Token)
		p.ZAdd(ctx, expiryKey, redis.Z{
			Score:  float64(t.ExpiresAt.UnixMilli()),
			Member: expiryMember(t.UserID, t.Token),
		})
		return nil
	})
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	return t, nil
}

func (r *RedisRefreshTokenRepo) FindValid(ctx context.Context, token string, now time.Time) (model.RefreshToken, error) {
	vals, err := r.client.HGetAll(ctx, tokenKey(token)).Result()
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "FindValidRefreshToken")
	}
	if len(vals) == 0 {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}

	t, err := decode(token, vals)
	if err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "FindValidRefreshToken")
	}
	if !now.Before(t.ExpiresAt) {
		return model.RefreshToken{}, customErrors.ErrNotFound
	}
	return t, nil
}

// DeleteByToken relies on DEL inside MULTI: of two concurrent callers only one sees a removed key.
func (r *RedisRefreshTokenRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	raw, err := r.client.HGet(ctx, tokenKey(token), fieldUserID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshToken")
	}

	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, tokenKey(token))
		p.SRem(ctx, userKey(userID), token)
		p.ZRem(ctx, expiryKey, expiryMember(userID, token))
		return nil
	})
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	return del.Val(), nil
}

func (r *RedisRefreshTokenRepo) DeleteByUserID(ctx context.Context, userID uint64) (int64, error) {
	tokens, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshTokensByUser")
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens))
	members := make([]interface{}, 0, len(tokens))
	setMembers := make([]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		keys = append(keys, tokenKey(tok))
		members = append(members, expiryMember(userID, tok))
		setMembers = append(setMembers, tok)
	}

	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, keys...)
		// только прочитанные токены: созданный параллельно останется в индексе
		p.SRem(ctx, userKey(userID), setMembers...)
		p.ZRem(ctx, expiryKey, members...)
		return nil
	})
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteRefreshTokensByUser")
	}
	return del.Val(), nil
}

func (r *RedisRefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	members, err := r.client.ZRangeByScore(ctx, expiryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteExpiredRefreshTokens")
	}
	if len(members) == 0 {
		return 0, nil
	}

	// считаем только реально удалённые хэши: ключ мог уже истечь по TTL или уйти в DeleteByToken
	dels := make([]*redis.IntCmd, 0, len(members))
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		zmembers := make([]interface{}, 0, len(members))
		for _, m := range members {
			zmembers = append(zmembers, m)
			userID, tok, ok := parseExpiryMember(m)
			if !ok {
				continue
			}
			dels = append(dels, p.Del(ctx, tokenKey(tok)))
			p.SRem(ctx, userKey(userID), tok)
		}
		p.ZRem(ctx, expiryKey, zmembers...)
		return nil
	})
	if err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteExpiredRefreshTokens")
	}

	var n int64
	for _, d := range dels {
		n += d.Val()
	}
	return n, nil
}

func parseExpiryMember(m string) (uint64, string, bool) {
	rawID, tok, found := strings.Cut(m, ":")
	if !found {
		return 0, "", false
	}
	userID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return userID, tok, true
}

func decode(token string, vals map[string]string) (model.RefreshToken, error) {
	id, err := strconv.ParseUint(vals[fieldID], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("field %s: %w", fieldID, err)
	}
	userID, err := strconv.ParseUint(vals[fieldUserID], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("field %s: %w", fieldUserID, err)
	}
	created, err := strconv.ParseInt(vals[fieldCreatedAt], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("field %s: %w", fieldCreatedAt, err)
	}
	expires, err := strconv.ParseInt(vals[fieldExpiresAt], 10, 64)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("field %s: %w", fieldExpiresAt, err)
	}

	return model.RefreshToken{
		ID:        id,
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Unix(0, created).UTC(),
		ExpiresAt: time.Unix(0, expires).UTC(),
	}, nil
}

func safeTTL(t model.RefreshToken) time.Duration {
	ttl := t.ExpiresAt.Sub(t.CreatedAt)
	if ttl <= 0 {
		// задаём минимальный TTL, чтобы ключ всё-таки исчез
		return ttlGrace
	}
	return ttl + ttlGrace
}
