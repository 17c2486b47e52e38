package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// FollowService manages the follow graph and the personal feed.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	listing *ListingService
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, listing *ListingService) *FollowService {
	return &FollowService{users: users, follows: follows, listing: listing}
}

// Follow makes userID follow authorUsername. Following an author twice is a
// no-op; following yourself is a validation error.
func (s *FollowService) Follow(ctx context.Context, userID uint, authorUsername string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, authorUsername)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, models.NewValidationError("You cannot follow yourself")
	}

	created, err := s.follows.Create(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.FollowEdges.WithLabelValues("follow").Inc()
	}
	return author, nil
}

// Unfollow removes the edge if it exists. A missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, authorUsername string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, authorUsername)
	if err != nil {
		return nil, err
	}

	removed, err := s.follows.Delete(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		observability.FollowEdges.WithLabelValues("unfollow").Inc()
	}
	return author, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.follows.Exists(ctx, userID, authorID)
}

// Feed lists posts by every author userID currently follows.
func (s *FollowService) Feed(ctx context.Context, userID uint, rawPage string) (*models.PostPage, error) {
	return s.listing.Page(ctx, repository.FeedPosts(userID), rawPage)
}

// Counts returns how many users follow userID and how many userID follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	if followers, err = s.follows.CountFollowers(ctx, userID); err != nil {
		return 0, 0, err
	}
	if following, err = s.follows.CountFollowing(ctx, userID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
