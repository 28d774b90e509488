// Package domain defines the persistence models for users, categories,
// articles, and article engagement (reactions, votes, browsing stats).
// These types are mapped with GORM and form the core data layer of the
// blog platform.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Article publication states.
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// ReactionLike is the only reaction type currently emitted by clients. The
// column is a string so future reaction kinds (bookmark, etc.) do not require
// a migration.
const ReactionLike = "like"

// User represents a registered author or reader.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Username / Email: unique identifiers for login and display.
//   - Role: "user" or "admin"; admins may manage any article.
//   - Status: "active" or "disabled"; disabled users fail authentication.
type User struct {
	ID        uint           `json:"id"         gorm:"primaryKey;autoIncrement"`
	Username  string         `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email     string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password  string         `json:"-"          gorm:"type:varchar(255);not null"` // bcrypt hash
	Avatar    string         `json:"avatar"     gorm:"type:varchar(255)"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	Status    string         `json:"status"     gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','disabled')"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Category groups articles for navigation.
type Category struct {
	ID        uint           `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name"       gorm:"type:varchar(64);not null;uniqueIndex:ux_categories_name"`
	Slug      string         `json:"slug"       gorm:"type:varchar(64);not null;uniqueIndex:ux_categories_slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Article is a blog post authored by a user, optionally filed under a
// category. ReadCount is a denormalized view counter incremented on detail
// reads; like/vote counts are never denormalized here and are always
// recomputed from the reaction and vote tables.
type Article struct {
	ID          uint           `json:"id"           gorm:"primaryKey;autoIncrement"`
	Title       string         `json:"title"        gorm:"type:varchar(200);not null"`
	Content     string         `json:"content"      gorm:"type:text;not null"`
	Summary     string         `json:"summary"      gorm:"type:text"`
	Cover       string         `json:"cover"        gorm:"type:varchar(255)"`
	AuthorID    uint           `json:"author_id"    gorm:"not null;index:idx_articles_author"`
	CategoryID  *uint          `json:"category_id"  gorm:"index:idx_articles_category"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;default:'draft';check:status IN ('draft','published')"`
	PublishTime *time.Time     `json:"publish_time" gorm:"index"`
	ReadCount   int64          `json:"read_count"   gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// Associations are loaded on demand; cascade keeps engagement rows
	// consistent when an article is removed.
	Author   *User     `json:"author,omitempty"   gorm:"foreignKey:AuthorID;references:ID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }

// ArticleReaction records a single user's reaction (currently only "like")
// on a single article. The unique index over (article_id, user_id, type) is
// the data-layer backstop that collapses duplicate like submissions into a
// single row even if a retry slips past the idempotency guard.
type ArticleReaction struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	ArticleID uint      `json:"article_id" gorm:"not null;uniqueIndex:ux_reactions_article_user_type,priority:1;index:idx_reactions_article"`
	UserID    uint      `json:"user_id"    gorm:"not null;uniqueIndex:ux_reactions_article_user_type,priority:2;index:idx_reactions_user"`
	Type      string    `json:"type"       gorm:"type:varchar(32);not null;uniqueIndex:ux_reactions_article_user_type,priority:3"`
	Value     int       `json:"value"      gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Article Article `json:"-" gorm:"foreignKey:ArticleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ArticleReaction.
func (ArticleReaction) TableName() string { return "article_reactions" }

// ArticleVote records a user's directional vote on an article. Value is +1 or
// -1; a retracted vote (value 0 on the API) is represented by row absence, so
// at most one live row exists per (article_id, user_id).
type ArticleVote struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	ArticleID uint      `json:"article_id" gorm:"not null;uniqueIndex:ux_votes_article_user,priority:1;index:idx_votes_article"`
	UserID    uint      `json:"user_id"    gorm:"not null;uniqueIndex:ux_votes_article_user,priority:2;index:idx_votes_user"`
	Value     int       `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Article Article `json:"-" gorm:"foreignKey:ArticleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ArticleVote.
func (ArticleVote) TableName() string { return "article_votes" }

// BrowsingStat accumulates page view time reported by frontend telemetry.
// UserID is nil for anonymous visitors; rows are keyed by (user, page) and
// updated in place as further time is reported.
type BrowsingStat struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    *uint     `json:"user_id"    gorm:"index:idx_browsing_user"`
	Page      string    `json:"page"       gorm:"type:varchar(100);not null;index:idx_browsing_page"`
	TotalTime float64   `json:"total_time" gorm:"not null;default:0"` // seconds
	Visits    int64     `json:"visits"     gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for BrowsingStat.
func (BrowsingStat) TableName() string { return "browsing_stats" }
