package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Profile is everything the author page shows.
type Profile struct {
	Author     *models.User     `json:"author"`
	PostCount  int64            `json:"post_count"`
	Followers  int64            `json:"followers"`
	Following  int64            `json:"following_count"`
	IsFollowed bool             `json:"following"`
	Page       *models.PostPage `json:"page"`
}

// ProfileService assembles author pages.
type ProfileService struct {
	users   repository.UserRepository
	listing *ListingService
	follows *FollowService
}

func NewProfileService(users repository.UserRepository, listing *ListingService, follows *FollowService) *ProfileService {
	return &ProfileService{users: users, listing: listing, follows: follows}
}

// Get loads username's profile as seen by viewerID (0 for anonymous). The
// following flag is about the viewer, not about whether anyone follows the author.
func (s *ProfileService) Get(ctx context.Context, username string, viewerID uint, rawPage string) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	page, err := s.listing.Page(ctx, repository.AuthorPosts(author.ID), rawPage)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.follows.Counts(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	isFollowed, err := s.follows.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Author:     author,
		PostCount:  page.Total,
		Followers:  followers,
		Following:  following,
		IsFollowed: isFollowed,
		Page:       page,
	}, nil
}
