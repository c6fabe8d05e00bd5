// Package presence tracks which users currently hold live connections.
// Kept in Redis so portal screens (and, later, other instances) can
// show online status; never consulted on the mutation path.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Status struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix, ttl: 24 * time.Hour}
}

func (s *Store) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *Store) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// Connected registers one socket for the user and marks them online.
func (s *Store) Connected(ctx context.Context, userID, socketID string) error {
	if err := s.client.SAdd(ctx, s.connKey(userID), socketID).Err(); err != nil {
		return err
	}
	_ = s.client.Expire(ctx, s.connKey(userID), s.ttl).Err()
	return s.setStatus(ctx, userID, "online")
}

// Disconnected removes the socket; the user goes offline when the last
// one is gone.
func (s *Store) Disconnected(ctx context.Context, userID, socketID string) error {
	if err := s.client.SRem(ctx, s.connKey(userID), socketID).Err(); err != nil {
		return err
	}
	n, err := s.client.SCard(ctx, s.connKey(userID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.setStatus(ctx, userID, "offline")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID string) (*Status, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) setStatus(ctx context.Context, userID, status string) error {
	b, _ := json.Marshal(Status{Status: status, LastSeen: time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), b, s.ttl).Err()
}
