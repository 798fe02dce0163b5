// Package memory is the in-process storage of the development backend
package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

// PointsPerLevel is the experience needed for each level
const PointsPerLevel = 500

// ProgressPoints is credited for a progress entry that does not complete the
// challenge
const ProgressPoints = 10

const (
	DailyBonusCoins = 50
	defaultSteps    = 10
)

type pointEntry struct {
	at       time.Time
	points   int
	category string
}

type user struct {
	rec          storage.UserRecord
	experience   int
	streak       int
	lastProgress time.Time
	joined       map[string]bool
	completed    map[string]bool
	achievements map[string]bool
	points       []pointEntry

	wallet       account.Wallet
	transactions []account.Transaction
	lastBonus    time.Time
	bonusStreak  int
	payments     []account.Payment
	subscribed   bool

	inbox         []notifications.Item
	notifSettings notifications.Settings

	friends map[string]bool
	blocked map[string]bool
	privacy social.PrivacySettings

	sessions []*loginSession
	history  []account.LoginSession
}

type loginSession struct {
	account.LoginSession
	revoked bool
}

type comment struct {
	userID string
	text   string
	at     time.Time
}

type challenge struct {
	base             types.ChallengeSummary
	creatorID        string
	endDate          time.Time
	steps            int
	baseLikes        int
	baseParticipants int
	participants     map[string]bool
	likes            map[string]bool
	progress         map[string]float64
	comments         []comment
}

type friendRequest struct {
	social.FriendRequest
	toID string
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users      map[string]*user
	emails     map[string]string
	challenges map[string]*challenge
	order      []string
	requests   map[string]*friendRequest
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:        now,
		users:      make(map[string]*user),
		emails:     make(map[string]string),
		challenges: make(map[string]*challenge),
		requests:   make(map[string]*friendRequest),
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", storage.ErrNotFound, what, id)
}

func (s *Store) user(userID string) (*user, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	return u, nil
}

func levelFor(experience int) int {
	return 1 + experience/PointsPerLevel
}

// Users

func (s *Store) CreateUser(req users.RegisterRequest, passwordHash string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, exists := s.emails[email]; exists {
		return users.User{}, storage.ErrUserExists
	}

	u := &user{
		rec: storage.UserRecord{
			User: users.User{
				ID:        uuid.NewString(),
				Email:     email,
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Username:  strings.SplitN(email, "@", 2)[0],
			},
			PasswordHash: passwordHash,
		},
		joined:       make(map[string]bool),
		completed:    make(map[string]bool),
		achievements: make(map[string]bool),
		friends:      make(map[string]bool),
		blocked:      make(map[string]bool),
		notifSettings: notifications.Settings{
			Email: true, Push: true, Challenges: true, Social: true, Achievements: true,
		},
		privacy: social.PrivacySettings{
			ProfileVisibility: "public",
			ShowOnlineStatus:  true,
			AllowRequests:     true,
		},
	}
	s.users[u.rec.ID] = u
	s.emails[email] = u.rec.ID
	return u.rec.User, nil
}

func (s *Store) GetUser(userID string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return users.User{}, err
	}
	return u.rec.User, nil
}

func (s *Store) GetUserByEmail(email string) (storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return storage.UserRecord{}, notFound("user", email)
	}
	return s.users[id].rec, nil
}

func (s *Store) SetPasswordHash(userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.rec.PasswordHash = hash
	return nil
}

func (s *Store) SetTwoFactor(userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.rec.TwoFactor = enabled
	return nil
}

func (s *Store) profile(u *user) users.Profile {
	active := 0
	for id := range u.joined {
		if !u.completed[id] {
			active++
		}
	}
	return users.Profile{
		User:        u.rec.User,
		Level:       levelFor(u.experience),
		Experience:  u.experience,
		Streak:      u.streak,
		UnreadCount: unread(u.inbox),
		Challenges:  &users.ChallengeCounts{Active: active, Completed: len(u.completed)},
	}
}

func (s *Store) GetProfile(userID string) (users.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return users.Profile{}, err
	}
	return s.profile(u), nil
}

func (s *Store) UpdateProfile(userID string, update users.ProfileUpdate) (users.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return users.Profile{}, err
	}
	if update.FirstName != nil {
		u.rec.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.rec.LastName = *update.LastName
	}
	if update.Username != nil {
		u.rec.Username = *update.Username
	}
	return s.profile(u), nil
}

func (s *Store) AwardPoints(userID string, points int) (storage.Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return storage.Award{}, err
	}
	return s.award(u, points, ""), nil
}

// award must be called with the write lock held
func (s *Store) award(u *user, points int, category string) storage.Award {
	before := levelFor(u.experience)
	u.experience += points
	after := levelFor(u.experience)
	u.points = append(u.points, pointEntry{at: s.now(), points: points, category: category})

	if coins := points / 10; coins > 0 {
		s.credit(u, coins, "earn", "points earned")
	}

	a := storage.Award{Points: points, LeveledUp: after > before}
	if a.LeveledUp {
		a.Achievement = s.unlock(u, fmt.Sprintf("level-%d", after),
			fmt.Sprintf("Level %d", after), fmt.Sprintf("Reached level %d", after), 0)
	}
	a.Profile = s.profile(u)
	return a
}

func (s *Store) unlock(u *user, key, title, description string, points int) *types.Achievement {
	if u.achievements[key] {
		return nil
	}
	u.achievements[key] = true
	return &types.Achievement{
		ID:          key,
		Title:       title,
		Description: description,
		Points:      points,
		UnlockedAt:  s.timestamp(),
	}
}

func (s *Store) credit(u *user, coins int, kind, reason string) {
	u.wallet.Coins += coins
	u.transactions = append([]account.Transaction{{
		ID:        uuid.NewString(),
		Kind:      kind,
		Amount:    coins,
		Currency:  "coins",
		Reason:    reason,
		CreatedAt: s.timestamp(),
	}}, u.transactions...)
}

// Challenges

// Seed adds challenges owned by no user, keeping their IDs
func (s *Store) Seed(list []types.ChallengeSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range list {
		ch := &challenge{
			base:             c,
			steps:            defaultSteps,
			baseLikes:        c.LikeCount,
			baseParticipants: c.ParticipantCount,
			participants:     make(map[string]bool),
			likes:            make(map[string]bool),
			progress:         make(map[string]float64),
		}
		ch.base.IsLiked = false
		ch.base.ProgressPercent = 0
		if c.DaysRemaining > 0 {
			ch.endDate = s.now().Add(time.Duration(c.DaysRemaining) * 24 * time.Hour)
		}
		if _, exists := s.challenges[c.ID]; !exists {
			s.order = append(s.order, c.ID)
		}
		s.challenges[c.ID] = ch
	}
}

func (s *Store) challenge(id string) (*challenge, error) {
	c, ok := s.challenges[id]
	if !ok {
		return nil, notFound("challenge", id)
	}
	return c, nil
}

func (s *Store) summary(c *challenge, userID string) types.ChallengeSummary {
	sum := c.base
	sum.LikeCount = c.baseLikes + len(c.likes)
	sum.ParticipantCount = c.baseParticipants + len(c.participants)
	sum.IsLiked = c.likes[userID]
	sum.ProgressPercent = c.progress[userID]
	if !c.endDate.IsZero() {
		days := int(math.Ceil(c.endDate.Sub(s.now()).Hours() / 24))
		sum.DaysRemaining = max(days, 0)
	}
	return sum
}

func (s *Store) ListChallenges(userID string) ([]types.ChallengeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ChallengeSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.summary(s.challenges[s.order[i]], userID))
	}
	return out, nil
}

func (s *Store) GetChallenge(challengeID, userID string) (types.ChallengeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return types.ChallengeSummary{}, err
	}
	return s.summary(c, userID), nil
}

func (s *Store) CreateChallenge(creatorID string, req types.CreateChallengeRequest) (types.ChallengeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.user(creatorID); err != nil {
		return types.ChallengeSummary{}, err
	}

	var end time.Time
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return types.ChallengeSummary{}, fmt.Errorf("invalid end date %q: %w", req.EndDate, err)
		}
		end = t
	}

	steps := len(req.Milestones)
	if steps == 0 {
		steps = defaultSteps
	}

	c := &challenge{
		base: types.ChallengeSummary{
			ID:           uuid.NewString(),
			Title:        req.Name,
			Description:  req.Description,
			Category:     req.Category,
			Difficulty:   string(req.Difficulty),
			PointsReward: req.Points,
		},
		creatorID:    creatorID,
		endDate:      end,
		steps:        steps,
		participants: map[string]bool{creatorID: true},
		likes:        make(map[string]bool),
		progress:     make(map[string]float64),
	}
	s.challenges[c.base.ID] = c
	s.order = append(s.order, c.base.ID)
	s.users[creatorID].joined[c.base.ID] = true

	return s.summary(c, creatorID), nil
}

func (s *Store) UpdateChallenge(challengeID, userID string, patch types.ChallengePatch) (types.ChallengeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return types.ChallengeSummary{}, err
	}
	if c.creatorID != userID {
		return types.ChallengeSummary{}, fmt.Errorf("%w: only the creator can edit a challenge", storage.ErrForbidden)
	}

	if patch.Title != nil {
		c.base.Title = *patch.Title
	}
	if patch.Description != nil {
		c.base.Description = *patch.Description
	}
	if patch.Category != nil {
		c.base.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		c.base.Difficulty = *patch.Difficulty
	}
	if patch.PointsReward != nil {
		c.base.PointsReward = *patch.PointsReward
	}
	if patch.DaysRemaining != nil {
		c.endDate = s.now().Add(time.Duration(*patch.DaysRemaining) * 24 * time.Hour)
	}
	return s.summary(c, userID), nil
}

func (s *Store) DeleteChallenge(challengeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return err
	}
	if c.creatorID != userID {
		return fmt.Errorf("%w: only the creator can delete a challenge", storage.ErrForbidden)
	}

	delete(s.challenges, challengeID)
	for i, id := range s.order {
		if id == challengeID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for id := range c.participants {
		if u, ok := s.users[id]; ok {
			delete(u.joined, challengeID)
		}
	}
	return nil
}

func (s *Store) JoinChallenge(challengeID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return 0, err
	}
	u, err := s.user(userID)
	if err != nil {
		return 0, err
	}
	if c.participants[userID] {
		return 0, fmt.Errorf("%w: already joined", storage.ErrConflict)
	}
	c.participants[userID] = true
	u.joined[challengeID] = true
	return c.baseParticipants + len(c.participants), nil
}

func (s *Store) ToggleLike(challengeID, userID string) (types.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return types.LikeResult{}, err
	}
	if c.likes[userID] {
		delete(c.likes, userID)
	} else {
		c.likes[userID] = true
	}
	return types.LikeResult{Liked: c.likes[userID], Likes: c.baseLikes + len(c.likes)}, nil
}

func (s *Store) Unlike(challengeID, userID string) (types.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return types.LikeResult{}, err
	}
	delete(c.likes, userID)
	return types.LikeResult{Liked: false, Likes: c.baseLikes + len(c.likes)}, nil
}

func (s *Store) RecordProgress(challengeID, userID string, req types.ProgressRequest) (storage.ProgressResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return storage.ProgressResult{}, err
	}
	u, err := s.user(userID)
	if err != nil {
		return storage.ProgressResult{}, err
	}
	if !c.participants[userID] {
		return storage.ProgressResult{}, fmt.Errorf("%w: join the challenge first", storage.ErrForbidden)
	}
	if u.completed[challengeID] {
		return storage.ProgressResult{}, fmt.Errorf("%w: challenge already completed", storage.ErrConflict)
	}

	now := s.now()
	today := now.Truncate(24 * time.Hour)
	switch last := u.lastProgress.Truncate(24 * time.Hour); {
	case u.lastProgress.IsZero():
		u.streak = 1
	case today.Sub(last) == 24*time.Hour:
		u.streak++
	case today.After(last):
		u.streak = 1
	}
	u.lastProgress = now

	progress := math.Min(100, c.progress[userID]+100/float64(c.steps))
	c.progress[userID] = progress

	points := ProgressPoints
	if progress >= 100 {
		u.completed[challengeID] = true
		points = c.base.PointsReward
	}

	res := storage.ProgressResult{Award: s.award(u, points, c.base.Category), Progress: progress}
	if res.Achievement == nil {
		res.Achievement = s.unlock(u, "first-step", "First Step", "Logged your first progress", 0)
	}
	if res.Achievement == nil && progress >= 100 {
		res.Achievement = s.unlock(u, "complete-"+challengeID, "Completed "+c.base.Title,
			"Finished the challenge", c.base.PointsReward)
	}
	return res, nil
}

func (s *Store) AddComment(challengeID, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return err
	}
	c.comments = append(c.comments, comment{userID: userID, text: text, at: s.now()})
	return nil
}

func (s *Store) BumpParticipants(challengeID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenge(challengeID)
	if err != nil {
		return 0, err
	}
	c.baseParticipants = max(c.baseParticipants+delta, 0)
	return c.baseParticipants + len(c.participants), nil
}

func (s *Store) ChallengeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Notifications

func unread(items []notifications.Item) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (s *Store) ListNotifications(userID string, filter notifications.Filter) (notifications.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return notifications.List{}, err
	}
	list := notifications.List{Notifications: []notifications.Item{}, UnreadCount: unread(u.inbox)}
	for _, it := range u.inbox {
		if filter.Matches(it.Type, it.Read) {
			list.Notifications = append(list.Notifications, it)
		}
	}
	return list, nil
}

func (s *Store) AddNotification(userID string, item notifications.Item) (notifications.Item, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return notifications.Item{}, 0, err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = s.timestamp()
	u.inbox = append([]notifications.Item{item}, u.inbox...)
	return item, unread(u.inbox), nil
}

func (s *Store) MarkNotificationRead(userID, notificationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return 0, err
	}
	for i := range u.inbox {
		if u.inbox[i].ID == notificationID {
			u.inbox[i].Read = true
			return unread(u.inbox), nil
		}
	}
	return 0, notFound("notification", notificationID)
}

func (s *Store) MarkAllNotificationsRead(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	for i := range u.inbox {
		u.inbox[i].Read = true
	}
	return nil
}

func (s *Store) DeleteNotification(userID, notificationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return 0, err
	}
	for i := range u.inbox {
		if u.inbox[i].ID == notificationID {
			u.inbox = append(u.inbox[:i], u.inbox[i+1:]...)
			return unread(u.inbox), nil
		}
	}
	return 0, notFound("notification", notificationID)
}

func (s *Store) ClearNotifications(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.inbox = nil
	return nil
}

func (s *Store) NotificationSettings(userID string) (notifications.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return notifications.Settings{}, err
	}
	return u.notifSettings, nil
}

func (s *Store) UpdateNotificationSettings(userID string, settings notifications.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.notifSettings = settings
	return nil
}

// Social

func (s *Store) friend(u *user) social.Friend {
	return social.Friend{
		ID:       u.rec.ID,
		Username: u.rec.DisplayName(),
		Level:    levelFor(u.experience),
	}
}

func (s *Store) Friends(userID string) ([]social.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	out := make([]social.Friend, 0, len(u.friends))
	for id := range u.friends {
		out = append(out, s.friend(s.users[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) FriendIDs(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(u.friends))
	for id := range u.friends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) FriendRequests(userID string) ([]social.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.user(userID); err != nil {
		return nil, err
	}
	out := []social.FriendRequest{}
	for _, r := range s.requests {
		if r.toID == userID {
			out = append(out, r.FriendRequest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *Store) blockedEither(a, b *user) bool {
	return a.blocked[b.rec.ID] || b.blocked[a.rec.ID]
}

func (s *Store) SearchUsers(userID, query string) ([]social.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []social.Friend{}
	for id, u := range s.users {
		if id == userID || s.blockedEither(me, u) || u.privacy.ProfileVisibility == "private" {
			continue
		}
		haystack := strings.ToLower(u.rec.Email + " " + u.rec.Username + " " + u.rec.DisplayName())
		if q == "" || strings.Contains(haystack, q) {
			out = append(out, s.friend(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

func (s *Store) pendingBetween(a, b string) bool {
	for _, r := range s.requests {
		if (r.FromID == a && r.toID == b) || (r.FromID == b && r.toID == a) {
			return true
		}
	}
	return false
}

func (s *Store) SendFriendRequest(fromID, toID string) (social.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.user(fromID)
	if err != nil {
		return social.FriendRequest{}, err
	}
	to, err := s.user(toID)
	if err != nil {
		return social.FriendRequest{}, err
	}

	switch {
	case fromID == toID:
		return social.FriendRequest{}, fmt.Errorf("%w: cannot befriend yourself", storage.ErrConflict)
	case s.blockedEither(from, to), !to.privacy.AllowRequests:
		return social.FriendRequest{}, fmt.Errorf("%w: user is not accepting friend requests", storage.ErrForbidden)
	case from.friends[toID]:
		return social.FriendRequest{}, fmt.Errorf("%w: already friends", storage.ErrConflict)
	case s.pendingBetween(fromID, toID):
		return social.FriendRequest{}, fmt.Errorf("%w: request already pending", storage.ErrConflict)
	}

	r := &friendRequest{
		FriendRequest: social.FriendRequest{
			ID:        uuid.NewString(),
			FromID:    fromID,
			FromName:  from.rec.DisplayName(),
			CreatedAt: s.timestamp(),
		},
		toID: toID,
	}
	s.requests[r.ID] = r
	return r.FriendRequest, nil
}

func (s *Store) takeRequest(userID, requestID string) (*friendRequest, error) {
	r, ok := s.requests[requestID]
	if !ok || r.toID != userID {
		return nil, notFound("friend request", requestID)
	}
	delete(s.requests, requestID)
	return r, nil
}

func (s *Store) AcceptFriendRequest(userID, requestID string) (social.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.takeRequest(userID, requestID)
	if err != nil {
		return social.FriendRequest{}, err
	}
	from, to := s.users[r.FromID], s.users[r.toID]
	if from == nil || to == nil {
		return social.FriendRequest{}, notFound("user", r.FromID)
	}
	from.friends[to.rec.ID] = true
	to.friends[from.rec.ID] = true
	return r.FriendRequest, nil
}

func (s *Store) RejectFriendRequest(userID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.takeRequest(userID, requestID)
	return err
}

func (s *Store) Unfriend(userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if !u.friends[friendID] {
		return notFound("friend", friendID)
	}
	delete(u.friends, friendID)
	if f, ok := s.users[friendID]; ok {
		delete(f.friends, userID)
	}
	return nil
}

func (s *Store) Block(userID, otherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	other, err := s.user(otherID)
	if err != nil {
		return err
	}
	if userID == otherID {
		return fmt.Errorf("%w: cannot block yourself", storage.ErrConflict)
	}

	u.blocked[otherID] = true
	delete(u.friends, otherID)
	delete(other.friends, userID)
	for id, r := range s.requests {
		if (r.FromID == userID && r.toID == otherID) || (r.FromID == otherID && r.toID == userID) {
			delete(s.requests, id)
		}
	}
	return nil
}

func (s *Store) PrivacySettings(userID string) (social.PrivacySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return social.PrivacySettings{}, err
	}
	return u.privacy, nil
}

func (s *Store) UpdatePrivacySettings(userID string, settings social.PrivacySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	u.privacy = settings
	return nil
}

// Accounts

func (s *Store) Wallet(userID string) (account.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return account.Wallet{}, err
	}
	return u.wallet, nil
}

func (s *Store) Transactions(userID string, limit int) ([]account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	n := len(u.transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]account.Transaction{}, u.transactions[:n]...), nil
}

func (s *Store) ClaimDailyBonus(userID string, now time.Time) (account.DailyBonus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return account.DailyBonus{}, err
	}

	today := now.Truncate(24 * time.Hour)
	last := u.lastBonus.Truncate(24 * time.Hour)
	switch {
	case !u.lastBonus.IsZero() && !today.After(last):
		return account.DailyBonus{}, fmt.Errorf("%w: daily bonus already claimed", storage.ErrConflict)
	case !u.lastBonus.IsZero() && today.Sub(last) == 24*time.Hour:
		u.bonusStreak++
	default:
		u.bonusStreak = 1
	}
	u.lastBonus = now

	coins := DailyBonusCoins + 10*min(u.bonusStreak-1, 5)
	s.credit(u, coins, "bonus", "daily bonus")
	return account.DailyBonus{Coins: coins, Streak: u.bonusStreak, Wallet: u.wallet}, nil
}

func (s *Store) ranked(category string) []*user {
	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		if category != "" && !s.joinedCategory(u, category) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].experience != out[j].experience {
			return out[i].experience > out[j].experience
		}
		return out[i].rec.ID < out[j].rec.ID
	})
	return out
}

func (s *Store) joinedCategory(u *user, category string) bool {
	for id := range u.joined {
		if c, ok := s.challenges[id]; ok && strings.EqualFold(c.base.Category, category) {
			return true
		}
	}
	return false
}

func (s *Store) Leaderboard(category string, limit int) ([]account.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := s.ranked(category)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	out := make([]account.LeaderboardEntry, 0, len(ranked))
	for i, u := range ranked {
		out = append(out, account.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.rec.ID,
			Username: u.rec.DisplayName(),
			Points:   u.experience,
			Level:    levelFor(u.experience),
		})
	}
	return out, nil
}

func (s *Store) Rank(userID string) (account.Rank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := s.ranked("")
	for i, u := range ranked {
		if u.rec.ID == userID {
			return account.Rank{Rank: i + 1, Total: len(ranked)}, nil
		}
	}
	return account.Rank{}, notFound("user", userID)
}

var timeRanges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

func (s *Store) Analytics(userID, timeRange string) (account.AnalyticsDashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return account.AnalyticsDashboard{}, err
	}

	var since time.Time
	if d, ok := timeRanges[timeRange]; ok {
		since = s.now().Add(-d)
	}

	d := account.AnalyticsDashboard{
		TimeRange:        timeRange,
		ChallengesJoined: len(u.joined),
		ByCategory:       make(map[string]int),
	}
	for _, p := range u.points {
		if p.at.Before(since) {
			continue
		}
		d.PointsEarned += p.points
		if p.category != "" {
			d.ByCategory[p.category] += p.points
		}
	}
	if len(u.joined) > 0 {
		d.CompletionRate = float64(len(u.completed)) / float64(len(u.joined))
	}
	return d, nil
}

func (s *Store) PaymentHistory(userID string, page, limit int) (account.PaymentHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return account.PaymentHistory{}, err
	}
	page = max(page, 1)
	if limit <= 0 {
		limit = 10
	}
	h := account.PaymentHistory{Payments: []account.Payment{}, Page: page, Total: len(u.payments)}
	if start := (page - 1) * limit; start < len(u.payments) {
		end := min(start+limit, len(u.payments))
		h.Payments = append(h.Payments, u.payments[start:end]...)
	}
	return h, nil
}

func (s *Store) CancelSubscription(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if !u.subscribed {
		return fmt.Errorf("%w: no active subscription", storage.ErrNotFound)
	}
	u.subscribed = false
	return nil
}

// Sessions

func (s *Store) RecordLogin(userID string, ls account.LoginSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if ls.LastSeen == "" {
		ls.LastSeen = s.timestamp()
	}
	u.sessions = append(u.sessions, &loginSession{LoginSession: ls})
	u.history = append([]account.LoginSession{ls}, u.history...)
	return nil
}

func (s *Store) SessionActive(userID, sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return false
	}
	for _, ls := range u.sessions {
		if ls.ID == sessionID {
			return !ls.revoked
		}
	}
	return false
}

func (s *Store) Sessions(userID, currentID string) ([]account.LoginSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	out := []account.LoginSession{}
	for _, ls := range u.sessions {
		if ls.revoked {
			continue
		}
		item := ls.LoginSession
		item.IsCurrent = ls.ID == currentID
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) RevokeSession(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	for _, ls := range u.sessions {
		if ls.ID == sessionID && !ls.revoked {
			ls.revoked = true
			return nil
		}
	}
	return notFound("session", sessionID)
}

func (s *Store) RevokeOtherSessions(userID, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.user(userID)
	if err != nil {
		return err
	}
	for _, ls := range u.sessions {
		if ls.ID != keepID {
			ls.revoked = true
		}
	}
	return nil
}

func (s *Store) LoginHistory(userID string, limit int) ([]account.LoginSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	n := len(u.history)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]account.LoginSession{}, u.history[:n]...), nil
}

func (s *Store) SecurityScore(userID string) (account.SecurityScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.user(userID)
	if err != nil {
		return account.SecurityScore{}, err
	}

	score := account.SecurityScore{Score: 60}
	if u.rec.TwoFactor {
		score.Score += 30
	} else {
		score.Recommendations = append(score.Recommendations, "Enable two-factor authentication")
	}
	active := 0
	for _, ls := range u.sessions {
		if !ls.revoked {
			active++
		}
	}
	if active <= 3 {
		score.Score += 10
	} else {
		score.Recommendations = append(score.Recommendations, "Sign out of sessions you no longer use")
	}
	return score, nil
}
