package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePermissionsReplaced = "permissions.replaced"
	EventTypeCategoryChanged     = "category.changed"
	EventTypeUserDeactivated     = "user.deactivated"
)

const (
	CategoryCreated     = "created"
	CategoryUpdated     = "updated"
	CategoryDeactivated = "deactivated"
)

type PermissionsReplacedEvent struct {
	BaseEvent
	UserID     int64    `json:"user_id"`
	ActorID    int64    `json:"actor_id"`
	ModuleKeys []string `json:"module_keys"`
}

func NewPermissionsReplacedEvent(userID, actorID int64, moduleKeys []string) *PermissionsReplacedEvent {
	return &PermissionsReplacedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionsReplaced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"actor_id":    actorID,
				"module_keys": moduleKeys,
			},
		},
		UserID:     userID,
		ActorID:    actorID,
		ModuleKeys: moduleKeys,
	}
}

type CategoryChangedEvent struct {
	BaseEvent
	Slug    string `json:"slug"`
	Change  string `json:"change"`
	ActorID int64  `json:"actor_id"`
}

func NewCategoryChangedEvent(slug, change string, actorID int64) *CategoryChangedEvent {
	return &CategoryChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCategoryChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"slug":     slug,
				"change":   change,
				"actor_id": actorID,
			},
		},
		Slug:    slug,
		Change:  change,
		ActorID: actorID,
	}
}

type UserDeactivatedEvent struct {
	BaseEvent
	UserID  int64 `json:"user_id"`
	ActorID int64 `json:"actor_id"`
}

func NewUserDeactivatedEvent(userID, actorID int64) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserDeactivated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"actor_id": actorID,
			},
		},
		UserID:  userID,
		ActorID: actorID,
	}
}
