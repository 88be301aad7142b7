package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PublicQuizPayloadKey returns the cache key for a shared quiz's public payload
func (r *CacheKeyStruct) PublicQuizPayloadKey(slug string) string {
	return fmt.Sprintf("quiz:slug:%s:payload", slug)
}

// SubmittedSessionKey marks a play session whose attempt was already recorded
func (r *CacheKeyStruct) SubmittedSessionKey(sessionID string) string {
	return fmt.Sprintf("play:%s:submitted", sessionID)
}

// ReviewEventsChannel returns the Redis PubSub channel carrying review events
func (r *CacheKeyStruct) ReviewEventsChannel() string {
	return "review:events"
}

var CacheKey = NewCacheKeyStruct()
