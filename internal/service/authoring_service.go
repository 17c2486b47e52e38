package service

import (
	"context"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
	"inkwell/internal/validation"
)

// ImageSaver persists uploaded images and removes ones no post ended up using.
type ImageSaver interface {
	Save(ctx context.Context, authorID uint, in storage.Upload) (*storage.StoredImage, error)
	Remove(ctx context.Context, rel string) error
}

// AuthoringService owns post and comment mutations.
type AuthoringService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	images   ImageSaver
}

type CreatePostInput struct {
	ActorID uint
	Text    string
	GroupID *uint
	Image   *storage.Upload
}

// EditPostInput changes only the fields that are set. ClearGroup removes the
// post from its group and wins over GroupID.
type EditPostInput struct {
	ActorID    uint
	PostID     uint
	Text       *string
	GroupID    *uint
	ClearGroup bool
	Image      *storage.Upload
}

type CreateCommentInput struct {
	ActorID uint
	PostID  uint
	Text    string
}

// PostDetail is a single post with everything its page shows.
type PostDetail struct {
	Post            *models.Post      `json:"post"`
	Comments        []*models.Comment `json:"comments"`
	AuthorPostCount int64             `json:"author_post_count"`
}

func NewAuthoringService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	images ImageSaver,
) *AuthoringService {
	return &AuthoringService{
		posts:    posts,
		comments: comments,
		groups:   groups,
		images:   images,
	}
}

func (s *AuthoringService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.ActorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	text, err := validation.RequiredText("text", in.Text, validation.PostTextMaxLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		GroupID:  in.GroupID,
		AuthorID: in.ActorID,
	}
	var stored *storage.StoredImage
	if in.Image != nil {
		if stored, err = s.saveImage(ctx, in.ActorID, in.Image); err != nil {
			return nil, err
		}
		post.Image = stored.Path
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(ctx, stored)
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("create").Inc()
	middleware.Logger.InfoContext(ctx, "post created", slog.Uint64("post_id", uint64(post.ID)))
	return post, nil
}

// EditPost applies in to the post. Only the author may edit; anyone else gets
// a forbidden error and nothing changes.
func (s *AuthoringService) EditPost(ctx context.Context, in EditPostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.ActorID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	if in.Text != nil {
		text, err := validation.RequiredText("text", *in.Text, validation.PostTextMaxLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.Text = text
	}
	switch {
	case in.ClearGroup:
		post.GroupID = nil
		post.Group = nil
	case in.GroupID != nil:
		if err := s.checkGroup(ctx, in.GroupID); err != nil {
			return nil, err
		}
		post.GroupID = in.GroupID
		post.Group = nil
	}
	var stored *storage.StoredImage
	if in.Image != nil {
		if stored, err = s.saveImage(ctx, in.ActorID, in.Image); err != nil {
			return nil, err
		}
		post.Image = stored.Path
	}

	if err := s.posts.Update(ctx, post); err != nil {
		s.discardImage(ctx, stored)
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("edit").Inc()
	return post, nil
}

// DeletePost removes the post and its comments. Only the author may delete.
func (s *AuthoringService) DeletePost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, models.NewForbiddenError("Only the author can delete this post")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("delete").Inc()
	return post, nil
}

func (s *AuthoringService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.ActorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	text, err := validation.RequiredText("text", in.Text, validation.CommentTextMaxLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment := &models.Comment{
		Text:     text,
		PostID:   in.PostID,
		AuthorID: in.ActorID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *AuthoringService) GetPost(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.AuthorPosts(post.AuthorID))
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

func (s *AuthoringService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.NewValidationError("Group not found")
		}
		return err
	}
	return nil
}

func (s *AuthoringService) saveImage(ctx context.Context, actorID uint, in *storage.Upload) (*storage.StoredImage, error) {
	if s.images == nil {
		return nil, models.NewValidationError("Image uploads are not available")
	}
	return s.images.Save(ctx, actorID, *in)
}

// discardImage removes a file written for a post that was never saved. Files
// that already existed may belong to other posts and stay.
func (s *AuthoringService) discardImage(ctx context.Context, stored *storage.StoredImage) {
	if stored == nil || !stored.Created {
		return
	}
	if err := s.images.Remove(ctx, stored.Path); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove orphaned image",
			slog.String("path", stored.Path), slog.String("error", err.Error()))
	}
}
