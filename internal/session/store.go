// Package session persists conversation history and user profiles in Redis.
// Both are externally owned state: the engine reads them into a Turn and the
// chat handler writes them back after each reply.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loqui-ai/loqui/internal/engine"
)

// Retention defaults matching the assistant's behavior: an hour of
// conversation, a day of profile data, at most 20 messages per conversation.
const (
	DefaultHistoryTTL  = time.Hour
	DefaultProfileTTL  = 24 * time.Hour
	DefaultMaxMessages = 20
)

// Profile holds what the assistant knows about a user, typically filled in
// by card extraction.
type Profile struct {
	Name      string    `json:"name,omitempty"`
	Company   string    `json:"company,omitempty"`
	Title     string    `json:"title,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists conversation history as Redis lists and profiles as plain
// keys with a TTL.
type Store struct {
	client      redis.Cmdable
	historyTTL  time.Duration
	profileTTL  time.Duration
	maxMessages int
}

// NewStore creates a session store with the default retention settings.
func NewStore(client redis.Cmdable) *Store {
	return &Store{
		client:      client,
		historyTTL:  DefaultHistoryTTL,
		profileTTL:  DefaultProfileTTL,
		maxMessages: DefaultMaxMessages,
	}
}

func historyKey(conversationID string) string { return "conv:" + conversationID }
func profileKey(userID string) string         { return "profile:" + userID }

// History returns the last limit messages of a conversation, oldest first.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]engine.PriorMessage, error) {
	if limit <= 0 || limit > s.maxMessages {
		limit = s.maxMessages
	}
	vals, err := s.client.LRange(ctx, historyKey(conversationID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", historyKey(conversationID), err)
	}

	msgs := make([]engine.PriorMessage, 0, len(vals))
	for _, v := range vals {
		var m engine.PriorMessage
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue // skip malformed entries
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append adds a message to a conversation, trims to the retention limit, and
// refreshes the TTL.
func (s *Store) Append(ctx context.Context, conversationID string, msg engine.PriorMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	key := historyKey(conversationID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
	pipe.Expire(ctx, key, s.historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Clear deletes a conversation's history.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	return s.client.Del(ctx, historyKey(conversationID)).Err()
}

// GetProfile loads a user profile; a missing profile returns nil, not an
// error.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	data, err := s.client.Get(ctx, profileKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", profileKey(userID), err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshaling profile: %w", err)
	}
	return &p, nil
}

// SetProfile stores a user profile with the profile TTL.
func (s *Store) SetProfile(ctx context.Context, userID string, p Profile) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	if err := s.client.Set(ctx, profileKey(userID), string(data), s.profileTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", profileKey(userID), err)
	}
	return nil
}

// UpdateProfile merges non-empty fields of update into the stored profile,
// creating it if absent.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update Profile) error {
	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if current == nil {
		current = &Profile{}
	}
	if update.Name != "" {
		current.Name = update.Name
	}
	if update.Company != "" {
		current.Company = update.Company
	}
	if update.Title != "" {
		current.Title = update.Title
	}
	if update.Phone != "" {
		current.Phone = update.Phone
	}
	if update.Email != "" {
		current.Email = update.Email
	}
	return s.SetProfile(ctx, userID, *current)
}
