// Package seed writes the sample catalog into an empty store.
package seed

import (
	"context"
	"sync"
	"time"

	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
)

var logg = logger.New()

// Seeder populates users, posts and comments once per process, and only
// when the users key is absent.
type Seeder struct {
	store *store.Adapter

	mu   sync.Mutex
	done bool
}

func New(a *store.Adapter) *Seeder {
	return &Seeder{store: a}
}

// EnsureSeeded is idempotent. It never overwrites existing data.
func (s *Seeder) EnsureSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}

	unlock := s.store.Lock(store.KeyUsers, store.KeyPosts, store.KeyComments)
	defer unlock()

	if s.store.Exists(ctx, store.KeyUsers) {
		s.done = true
		logg.Debug("seed", "Store already seeded")
		return nil
	}

	err := s.store.WriteMany(ctx, []store.Change{
		{Key: store.KeyUsers, Value: Users()},
		{Key: store.KeyPosts, Value: Posts()},
		{Key: store.KeyComments, Value: Comments()},
	}, events.Ref{Kind: events.KindSeed})
	if err != nil {
		return err
	}

	s.done = true
	logg.Info("seed", "Seeded sample users, posts and comments")
	return nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Users returns a fresh copy of the sample users.
func Users() []models.User {
	return []models.User{
		{ID: "user-1", Name: "Elena Petrova", Email: "elena@example.com", AvatarURL: "https://picsum.photos/seed/201/80/80", Bio: "Writer, dreamer, and coffee enthusiast.", FollowersCount: 125, FollowingCount: 78},
		{ID: "user-2", Name: "John Miles", Email: "john@example.com", AvatarURL: "https://picsum.photos/seed/202/80/80", Bio: "Exploring the intersection of technology and creativity.", FollowersCount: 256, FollowingCount: 120},
		{ID: "user-3", Name: "Mei Lin", Email: "mei@example.com", AvatarURL: "https://picsum.photos/seed/203/80/80", Bio: "Lover of minimalist design and clean code.", FollowersCount: 512, FollowingCount: 32},
	}
}

// Posts returns a fresh copy of the sample posts, newest first.
func Posts() []models.Post {
	u := Users()
	return []models.Post{
		{
			Slug:      "the-art-of-minimalism",
			Title:     "The Art of Minimalism in Design and Life",
			Content:   minimalismContent,
			Author:    u[2],
			CreatedAt: at("2024-05-15T10:00:00Z"),
			Tags:      []string{"Design", "Lifestyle", "Minimalism"},
			ImageURL:  "https://picsum.photos/seed/102/800/600",
			ImageHint: "desk setup",
			Likes:     128,
		},
		{
			Slug:      "exploring-the-unknown",
			Title:     "Exploring the Unknown: A Journey into Generative AI",
			Content:   generativeAIContent,
			Author:    u[1],
			CreatedAt: at("2024-05-14T14:30:00Z"),
			Tags:      []string{"Technology", "AI", "Future"},
			ImageURL:  "https://picsum.photos/seed/101/800/600",
			ImageHint: "abstract architecture",
			Likes:     256,
		},
		{
			Slug:      "a-walk-in-nature",
			Title:     "The Unseen Benefits of a Simple Walk in Nature",
			Content:   natureContent,
			Author:    u[0],
			CreatedAt: at("2024-05-12T09:00:00Z"),
			Tags:      []string{"Health", "Wellness", "Nature"},
			ImageURL:  "https://picsum.photos/seed/103/800/600",
			ImageHint: "nature landscape",
			Likes:     98,
		},
	}
}

// Comments returns a fresh copy of the sample comments keyed by post slug.
func Comments() map[string][]models.Comment {
	u := Users()
	return map[string][]models.Comment{
		"the-art-of-minimalism": {
			{ID: "comment-1", Text: "Great article! This is the inspiration I needed to declutter my workspace.", Author: u[0], CreatedAt: at("2024-05-15T11:00:00Z"), PostSlug: "the-art-of-minimalism"},
			{ID: "comment-2", Text: "Digital minimalism is something I've been trying to practice. It's tough but so rewarding.", Author: u[1], CreatedAt: at("2024-05-15T12:30:00Z"), PostSlug: "the-art-of-minimalism"},
		},
		"exploring-the-unknown": {
			{ID: "comment-3", Text: "Fascinating read! The idea of human-AI collaboration is so exciting.", Author: u[2], CreatedAt: at("2024-05-14T15:00:00Z"), PostSlug: "exploring-the-unknown"},
		},
	}
}

const minimalismContent = `Minimalism is not just an aesthetic; it's a philosophy that can be applied to almost every aspect of our lives. From the way we design our homes to the way we structure our days, embracing minimalism can lead to a more focused and intentional existence.

#### Declutter Your Space
Start with your physical environment. A cluttered space often leads to a cluttered mind. Go through your belongings and ask yourself a simple question: "Does this bring me joy or serve a purpose?" If the answer is no, it might be time to let it go. This process isn't about deprivation, but about making room for what truly matters.

#### Digital Minimalism
In today's hyper-connected world, our digital lives can be just as cluttered as our physical ones. Unsubscribe from newsletters you never read, delete apps you don't use, and be mindful of your time on social media. A digital detox can be incredibly refreshing and help you regain focus on your real-world priorities.

The journey to a minimalist lifestyle is a personal one, and it's not about following a strict set of rules. It's about finding what works for you and creating a life that is simpler, more meaningful, and free of excess.`

const generativeAIContent = `Generative AI is transforming the creative landscape. From art and music to writing and code, AI models are now capable of producing novel content that is often indistinguishable from human-created work.

#### How it Works
At its core, generative AI learns patterns from vast amounts of data. When given a prompt, it uses this knowledge to generate new data that conforms to the learned patterns. This could be generating an image from a text description, composing a piece of music in a certain style, or even writing a poem.

#### The Future is Collaborative
Instead of viewing AI as a replacement for human creativity, we should see it as a powerful new tool. The most exciting possibilities lie in the collaboration between humans and AI. Artists can use AI to generate new ideas, writers can use it to overcome writer's block, and developers can use it to accelerate their workflow.

The era of generative AI is just beginning, and the possibilities are limitless. It's a new frontier for creativity, and I, for one, am excited to see where it takes us.`

const natureContent = `In our fast-paced lives, we often underestimate the profound impact of simple activities. Taking a walk in nature is one such activity. It costs nothing, requires no special equipment, and its benefits are immense.

#### Mental Clarity
Stepping away from screens and into the natural world allows our minds to reset. The gentle sounds of birds, the rustling of leaves, and the fresh air can reduce stress and anxiety, improve our mood, and boost our creative thinking. Studies have shown that even a short walk in a park can have significant mental health benefits.

#### Physical Well-being
Walking is a fantastic form of low-impact exercise. It strengthens our hearts, improves circulation, and helps maintain a healthy weight. When we walk on natural, uneven terrain, we also improve our balance and proprioception.

#### A Deeper Connection
Spending time in nature helps us reconnect with the world around us and our place within it. It fosters a sense of wonder and appreciation for the environment. So, next time you feel overwhelmed, consider lacing up your shoes and heading out for a walk. You might be surprised at what you find.`
