package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool

	// DryRun builds entities without writing them.
	DryRun bool
	// SkipBcrypt stores the plain demo password; use only for throwaway databases.
	SkipBcrypt bool
	BatchSize  int
	MaxDays    int
	RandSeed   int64
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder populates a database with demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes every row, children first.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds groups, users, posts, comments and follow edges.
func (s *Seeder) Run() (*Summary, error) {
	log.Printf("🌱 Seeding %d users and %d posts", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	var groups []*models.Group
	if !s.opts.DryRun {
		var err error
		if groups, err = Groups(s.db); err != nil {
			return nil, err
		}
	}
	sum.Groups = len(groups)

	users := make([]*models.User, 0, s.opts.NumUsers)
	for range s.opts.NumUsers {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	rng := s.factory.rng
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for range s.opts.NumPosts {
		var group *models.Group
		// roughly a third of posts stay ungrouped
		if len(groups) > 0 && rng.Intn(3) > 0 {
			group = groups[rng.Intn(len(groups))]
		}
		posts = append(posts, s.factory.BuildPost(users[rng.Intn(len(users))], group))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	for _, post := range posts {
		for range rng.Intn(4) {
			if _, err := s.factory.CreateComment(users[rng.Intn(len(users))], post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}

	for _, u := range users {
		for range rng.Intn(min(len(users), 6)) {
			author := users[rng.Intn(len(users))]
			if author.ID == u.ID {
				continue
			}
			if err := s.factory.CreateFollow(u, author); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			sum.Follows++
		}
	}

	log.Printf("✓ %d users, %d groups, %d posts, %d comments, ~%d follows",
		sum.Users, sum.Groups, sum.Posts, sum.Comments, sum.Follows)
	return sum, nil
}
