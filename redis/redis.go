package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carlospion/AvocadoLegal/config"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// SessionInfo describes one online participant of a conversation.
type SessionInfo struct {
	SessionID  string `json:"session_id"`
	SenderType string `json:"sender_type"`
	Name       string `json:"name"`
}

func presenceKey(conversationID string) string {
	return fmt.Sprintf("chat:conversation:%s:online", conversationID)
}

// AddOnline registers a session in the conversation's online hash. The hash
// expires after a day so dead conversations do not pile up.
func (r *RedisClient) AddOnline(ctx context.Context, conversationID string, info SessionInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	key := presenceKey(conversationID)
	if err := r.Client.HSet(ctx, key, info.SessionID, data).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, 24*time.Hour).Err()
}

func (r *RedisClient) RemoveOnline(ctx context.Context, conversationID, sessionID string) error {
	return r.Client.HDel(ctx, presenceKey(conversationID), sessionID).Err()
}

// GetOnline returns everyone currently subscribed to a conversation channel.
func (r *RedisClient) GetOnline(ctx context.Context, conversationID string) ([]SessionInfo, error) {
	result, err := r.Client.HGetAll(ctx, presenceKey(conversationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online sessions for %s: %w", conversationID, err)
	}
	sessions := make([]SessionInfo, 0, len(result))
	for _, data := range result {
		var info SessionInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}
		sessions = append(sessions, info)
	}
	return sessions, nil
}
