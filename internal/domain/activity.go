package domain

import "time"

// Entity types recorded in the activity log.
const (
	EntityUser    = "user"
	EntityProject = "project"
	EntityTask    = "task"
)

// ActivityEntry is one record of the activity log.
type ActivityEntry struct {
	ID          string    `mapstructure:"id"`
	UserID      *string   `mapstructure:"user_id"`
	UserName    *string   `mapstructure:"user_name"`
	Action      string    `mapstructure:"action"`
	EntityType  *string   `mapstructure:"entity_type"`
	EntityID    *string   `mapstructure:"entity_id"`
	EntityName  *string   `mapstructure:"entity_name"`
	Description *string   `mapstructure:"description"`
	Metadata    *string   `mapstructure:"metadata"` // JSON document
	CreatedAt   time.Time `mapstructure:"created_at"`
}
