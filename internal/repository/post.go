package repository

import (
	"context"
	"log/slog"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostScope selects which posts a listing covers. The zero value is every post.
type PostScope struct {
	Search     string
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

// AllPosts covers every post, optionally narrowed to texts containing search.
// The term is matched as given, whitespace included.
func AllPosts(search string) PostScope { return PostScope{Search: search} }

// GroupPosts covers posts in one group.
func GroupPosts(groupID uint) PostScope { return PostScope{GroupID: groupID} }

// AuthorPosts covers posts by one author.
func AuthorPosts(authorID uint) PostScope { return PostScope{AuthorID: authorID} }

// FeedPosts covers posts by every author followerID follows, resolved at query time.
func FeedPosts(followerID uint) PostScope { return PostScope{FollowerID: followerID} }

func (s PostScope) apply(db *gorm.DB) *gorm.DB {
	if s.Search != "" {
		db = db.Where(`posts.text LIKE ? ESCAPE '\'`, "%"+escapeLike(s.Search)+"%")
	}
	if s.GroupID != 0 {
		db = db.Where("posts.group_id = ?", s.GroupID)
	}
	if s.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", s.AuthorID)
	}
	if s.FollowerID != 0 {
		followed := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", s.FollowerID)
		db = db.Where("posts.author_id IN (?)", followed)
	}
	return db
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Count(ctx context.Context, scope PostScope) (int64, error)
	List(ctx context.Context, scope PostScope, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		log:     repoLogger("posts"),
		metrics: observability.NewDatabaseMetrics("posts"),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.Uint64("id", uint64(post.ID)), slog.Uint64("author_id", uint64(post.AuthorID)))
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get_by_id")()

	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context, scope PostScope) (int64, error) {
	defer r.metrics.TrackQuery("count")()

	var total int64
	if err := scope.apply(r.db.WithContext(ctx).Model(&models.Post{})).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

// List returns posts newest first; ties on created_at break by id.
func (r *postRepository) List(ctx context.Context, scope PostScope, limit, offset int) ([]*models.Post, error) {
	defer r.metrics.TrackQuery("list")()

	var posts []*models.Post
	err := scope.apply(r.db.WithContext(ctx).Model(&models.Post{})).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update writes text, image and group. created_at is never rewritten.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).
		Model(post).
		Select("Text", "Image", "GroupID").
		Updates(post)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogUpdate(ctx, slog.Uint64("id", uint64(post.ID)))
	return nil
}

// Delete removes the post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogDelete(ctx, slog.Uint64("id", uint64(id)))
	return nil
}
