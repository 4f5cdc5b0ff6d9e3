// Package domain defines the persistence models for users, games, favorites,
// and AI recommendation requests. These types are mapped with GORM and form
// the core data layer of the game catalog application.
package domain

import (
	"time"
)

// User represents a registered account. Passwords are stored as bcrypt
// hashes and are never serialized in API responses.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Name: display name shown in the UI.
//   - Email: unique login identifier.
//   - Password: bcrypt hash; excluded from JSON.
//   - Role: "user" or "admin"; controls access to catalog mutations.
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password  string    `json:"-"          gorm:"type:varchar(255);not null"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Game is a single catalog entry. The catalog is read-mostly: rows are
// seeded at startup and only edited through the admin update endpoint.
type Game struct {
	ID          uint      `json:"id"          gorm:"primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null;index:idx_games_title"`
	Genre       string    `json:"genre"       gorm:"type:varchar(64);index:idx_games_genre"`
	Platform    string    `json:"platform"    gorm:"type:varchar(128)"`
	Publisher   string    `json:"publisher"   gorm:"type:varchar(128)"`
	Thumbnail   string    `json:"thumbnail"   gorm:"type:varchar(512)"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// Favorite links a user to a game they marked as a favorite. A user can
// favorite a given game at most once (enforced by unique index). Creation
// order drives both the favorites listing and the "most recent favorites"
// window used for recommendation prompts.
type Favorite struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_favorites_user_game"`
	GameID    uint      `json:"game_id"    gorm:"not null;index;uniqueIndex:ux_favorites_user_game"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Game is the favorited catalog entry; loaded when listings need
	// full game details or titles for prompt construction.
	Game Game `json:"game,omitempty" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// AIRequest records one recommendation generation event. The newest row per
// user acts as the recommendation cache: rows are only ever created by the
// generator and deleted by their owner, never updated in place. Response
// holds the JSON-serialized array of recommended game IDs; entries that no
// longer resolve against the catalog are dropped lazily at read time.
type AIRequest struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;index:idx_ai_requests_user"`
	Prompt    string    `json:"prompt"     gorm:"type:varchar(255)"`
	Response  string    `json:"response"   gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_ai_requests_user,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for AIRequest.
func (AIRequest) TableName() string { return "ai_requests" }
