package services

import (
	"context"
	"fmt"
	"strings"

	"writing-challenge-api/models"
)

// AudienceResolver turns a challenge event into per-recipient messages.
type AudienceResolver struct {
	users UserStore
}

func NewAudienceResolver(users UserStore) *AudienceResolver {
	return &AudienceResolver{users: users}
}

// audience collects messages keyed by recipient. The first rule to claim a
// recipient decides the message they get.
type audience struct {
	seen     map[uint]struct{}
	messages []Message
}

func newAudience() *audience {
	return &audience{seen: make(map[uint]struct{})}
}

func (a *audience) add(msg Message) {
	if msg.To == 0 {
		return
	}
	if _, ok := a.seen[msg.To]; ok {
		return
	}
	a.seen[msg.To] = struct{}{}
	a.messages = append(a.messages, msg)
}

// ForChallengeCreated resolves the author, the author's followers, genre
// followers and skill-level matches, in that priority order.
func (r *AudienceResolver) ForChallengeCreated(ctx context.Context, c *models.Challenge) ([]Message, error) {
	a := newAudience()

	a.add(Message{
		To:      c.AuthorID,
		Title:   "Your challenge is live",
		Content: fmt.Sprintf("%q has been created and will start %s.", c.Name, c.StartTime.UTC().Format("Jan 2, 2006 15:04 MST")),
		Type:    models.NotificationChallengeActivity,
	})

	followers, err := r.users.FollowersOf(ctx, c.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("load followers of %d: %w", c.AuthorID, err)
	}
	for _, u := range followers {
		if !u.AllowFollowNotifications {
			continue
		}
		a.add(Message{
			To:      u.UserID,
			Title:   "New challenge from someone you follow",
			Content: fmt.Sprintf("A writer you follow just posted %q.", c.Name),
			Type:    models.NotificationFollowActivity,
		})
	}

	genreFollowers, err := r.users.GenreFollowers(ctx, c.Genre)
	if err != nil {
		return nil, fmt.Errorf("load %s genre followers: %w", c.Genre, err)
	}
	for _, u := range genreFollowers {
		if u.UserID == c.AuthorID || !u.AllowGenreNotifications {
			continue
		}
		a.add(Message{
			To:      u.UserID,
			Title:   fmt.Sprintf("New %s challenge", genreLabel(c.Genre)),
			Content: fmt.Sprintf("%q was just posted in a genre you follow.", c.Name),
			Type:    models.NotificationChallengeActivity,
		})
	}

	peers, err := r.users.BySkillLevel(ctx, c.SkillLevel)
	if err != nil {
		return nil, fmt.Errorf("load %s writers: %w", c.SkillLevel, err)
	}
	for _, u := range peers {
		if u.UserID == c.AuthorID || !u.AllowSkillLevelNotifications {
			continue
		}
		a.add(Message{
			To:      u.UserID,
			Title:   "New challenge at your level",
			Content: fmt.Sprintf("%q is a %s challenge, just like your skill level.", c.Name, c.SkillLevel),
			Type:    models.NotificationChallengeActivity,
		})
	}

	return a.messages, nil
}

// ForChallengeScored returns the announcement to the author followed by one
// message per winner. The two are separate events, so an author who placed
// gets both. A winner holding several places is addressed once. These
// messages bypass category opt-outs; the global allow flag still applies.
func (r *AudienceResolver) ForChallengeScored(c *models.Challenge) []Message {
	winners := c.Winners()

	content := fmt.Sprintf("Scoring for %q is complete. No submission qualified for a place.", c.Name)
	if len(winners) > 0 {
		content = fmt.Sprintf("Scoring for %q is complete. %d winner(s) have been placed.", c.Name, len(winners))
	}
	msgs := make([]Message, 0, len(winners)+1)
	if c.AuthorID != 0 {
		msgs = append(msgs, Message{
			To:             c.AuthorID,
			Title:          "Challenge winners announced",
			Content:        content,
			Type:           models.NotificationChallengeActivity,
			BypassCategory: true,
		})
	}

	placed := newAudience()
	for i, id := range winners {
		placed.add(Message{
			To:             id,
			Title:          "You won a challenge!",
			Content:        fmt.Sprintf("You placed %s in %q.", placeLabel(i), c.Name),
			Type:           models.NotificationChallengeActivity,
			BypassCategory: true,
			Email:          true,
		})
	}
	return append(msgs, placed.messages...)
}

func genreLabel(g models.Genre) string {
	return strings.ReplaceAll(string(g), "_", " ")
}

func placeLabel(i int) string {
	switch i {
	case 0:
		return "first"
	case 1:
		return "second"
	case 2:
		return "third"
	}
	return fmt.Sprintf("#%d", i+1)
}
