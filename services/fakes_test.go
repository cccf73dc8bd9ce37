package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"writing-challenge-api/errs"
	"writing-challenge-api/models"
)

type memChallengeStore struct {
	mu       sync.Mutex
	nextID   uint
	items    map[uint]models.Challenge
	claims   int
	updates  int
	claimErr error
}

func newMemChallengeStore(items ...models.Challenge) *memChallengeStore {
	s := &memChallengeStore{items: make(map[uint]models.Challenge)}
	for _, c := range items {
		s.items[c.ChallengeID] = c
		if c.ChallengeID > s.nextID {
			s.nextID = c.ChallengeID
		}
	}
	return s
}

func (s *memChallengeStore) Create(_ context.Context, c *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ChallengeID = s.nextID
	s.items[c.ChallengeID] = *c
	return nil
}

func (s *memChallengeStore) FindByID(_ context.Context, id uint) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("challenge %d: %w", id, errs.ErrNotFound)
	}
	return &c, nil
}

func (s *memChallengeStore) List(_ context.Context) ([]models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Challenge, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

func (s *memChallengeStore) ListUnsettled(ctx context.Context) ([]models.Challenge, error) {
	all, _ := s.List(ctx)
	out := all[:0]
	for _, c := range all {
		if c.Status != models.ChallengeEnded || !c.Scored {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memChallengeStore) UpdateProgress(_ context.Context, id uint, status models.ChallengeStatus, participation int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok || c.Status.Rank() > status.Rank() {
		return false, nil
	}
	c.Status, c.ParticipationCount = status, participation
	s.items[id] = c
	s.updates++
	return true, nil
}

func (s *memChallengeStore) ClaimScoring(_ context.Context, id uint, podium models.Podium) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, s.claimErr
	}
	c, ok := s.items[id]
	if !ok || c.Scored {
		return false, nil
	}
	c.Scored = true
	c.FirstPlaceID, c.SecondPlaceID, c.ThirdPlaceID = podium.First, podium.Second, podium.Third
	s.items[id] = c
	s.claims++
	return true, nil
}

func (s *memChallengeStore) get(id uint) models.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

type memSubmissionStore struct {
	mu     sync.Mutex
	ranked map[uint][]models.RankedSubmission

	// rankDelay widens the window between ranking and claiming.
	rankDelay time.Duration
}

func newMemSubmissionStore() *memSubmissionStore {
	return &memSubmissionStore{ranked: make(map[uint][]models.RankedSubmission)}
}

func (s *memSubmissionStore) add(challengeID uint, subs ...models.RankedSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		sub.ChallengeID = challengeID
		s.ranked[challengeID] = append(s.ranked[challengeID], sub)
	}
}

func (s *memSubmissionStore) CountForChallenge(_ context.Context, challengeID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ranked[challengeID]), nil
}

func (s *memSubmissionStore) RankedForChallenge(_ context.Context, challengeID uint) ([]models.RankedSubmission, error) {
	if s.rankDelay > 0 {
		time.Sleep(s.rankDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RankedSubmission(nil), s.ranked[challengeID]...), nil
}

type memUserStore struct {
	mu        sync.Mutex
	users     map[uint]models.User
	followers map[uint][]uint
	genres    map[models.Genre][]uint
	credits   []credit
}

type credit struct {
	userID uint
	points int
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{
		users:     make(map[uint]models.User),
		followers: make(map[uint][]uint),
		genres:    make(map[models.Genre][]uint),
	}
	for _, u := range users {
		s.users[u.UserID] = u
	}
	return s
}

func (s *memUserStore) follow(follower, followed uint) {
	s.followers[followed] = append(s.followers[followed], follower)
}

func (s *memUserStore) followGenre(userID uint, g models.Genre) {
	s.genres[g] = append(s.genres[g], userID)
}

func (s *memUserStore) pick(ids []uint) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *memUserStore) FindByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pick(ids), nil
}

func (s *memUserStore) FollowersOf(_ context.Context, userID uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pick(s.followers[userID]), nil
}

func (s *memUserStore) GenreFollowers(_ context.Context, genre models.Genre) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pick(s.genres[genre]), nil
}

func (s *memUserStore) BySkillLevel(_ context.Context, level models.SkillLevel) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.SkillLevel == level {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *memUserStore) CreditPoints(_ context.Context, userID uint, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, errs.ErrNotFound)
	}
	u.Points += points
	s.users[userID] = u
	s.credits = append(s.credits, credit{userID: userID, points: points})
	return nil
}

func (s *memUserStore) points(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].Points
}

func (s *memUserStore) creditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.credits)
}

type memNotificationStore struct {
	mu       sync.Mutex
	rows     map[uint][]models.Notification
	versions map[uint]int64

	// conflicts makes the next N writes fail with errs.ErrConflict.
	conflicts int
	insertErr error
}

func newMemNotificationStore() *memNotificationStore {
	return &memNotificationStore{rows: make(map[uint][]models.Notification), versions: make(map[uint]int64)}
}

func (s *memNotificationStore) conflict() error {
	if s.conflicts > 0 {
		s.conflicts--
		return errs.ErrConflict
	}
	return nil
}

func (s *memNotificationStore) InsertBatch(_ context.Context, items []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, n := range items {
		s.rows[n.UserID] = append(s.rows[n.UserID], n)
		s.versions[n.UserID]++
	}
	return nil
}

func (s *memNotificationStore) ListForUser(_ context.Context, userID uint) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Notification(nil), s.rows[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreateAt.After(out[j].CreateAt) })
	return out, nil
}

func (s *memNotificationStore) CountUnread(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.rows[userID] {
		if row.Status == models.NotificationUnread {
			n++
		}
	}
	return n, nil
}

func (s *memNotificationStore) apply(userID uint, i int, target models.NotificationStatus, now time.Time) bool {
	row := &s.rows[userID][i]
	switch target {
	case models.NotificationPermanentlyDelete:
		s.rows[userID] = append(s.rows[userID][:i], s.rows[userID][i+1:]...)
		return true
	case models.NotificationDelete:
		if row.Status == models.NotificationDelete {
			return false
		}
		stamp := now
		row.Status, row.DeletionTime = target, &stamp
	default:
		row.Status, row.DeletionTime = target, nil
	}
	return true
}

func (s *memNotificationStore) SetStatus(_ context.Context, userID uint, id string, target models.NotificationStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflict(); err != nil {
		return err
	}
	for i, row := range s.rows[userID] {
		if row.NotificationID == id {
			s.apply(userID, i, target, now)
			s.versions[userID]++
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, errs.ErrNotFound)
}

func (s *memNotificationStore) SetAllStatus(_ context.Context, userID uint, from, to models.NotificationStatus, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflict(); err != nil {
		return 0, err
	}
	var changed int64
	for i := len(s.rows[userID]) - 1; i >= 0; i-- {
		if s.rows[userID][i].Status == from && s.apply(userID, i, to, now) {
			changed++
		}
	}
	s.versions[userID]++
	return changed, nil
}

func (s *memNotificationStore) purge(userID uint, cutoff time.Time) int64 {
	kept := s.rows[userID][:0]
	var purged int64
	for _, row := range s.rows[userID] {
		if row.Status == models.NotificationDelete && row.DeletionTime != nil && row.DeletionTime.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, row)
	}
	s.rows[userID] = kept
	return purged
}

func (s *memNotificationStore) PurgeExpired(_ context.Context, userID uint, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(userID, cutoff), nil
}

func (s *memNotificationStore) PurgeAllExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for userID := range s.rows {
		total += s.purge(userID, cutoff)
	}
	return total, nil
}

func (s *memNotificationStore) forUser(userID uint) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.rows[userID]...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type stubLocker struct {
	mu       sync.Mutex
	held     bool
	released int
}

func (l *stubLocker) TryLock(_ context.Context, _ string) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, errs.ErrSweepAlreadyRunning
	}
	l.held = true
	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.released++
		return nil
	}, nil
}

var errBoom = errors.New("boom")

// fixedClock returns a clock pinned to t that tests can move.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func intPtr(v int) *int { return &v }

func optedIn(id uint, level models.SkillLevel) models.User {
	return models.User{
		UserID:                       id,
		Username:                     fmt.Sprintf("writer%d", id),
		SkillLevel:                   level,
		AllowNotifications:           true,
		AllowFollowNotifications:     true,
		AllowGenreNotifications:      true,
		AllowSkillLevelNotifications: true,
		AllowChallengeActivity:       true,
		AllowReviewUpdates:           true,
		AllowSubmissionInteractions:  true,
		AllowFollowActivity:          true,
	}
}
