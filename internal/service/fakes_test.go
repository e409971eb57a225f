package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. They implement
// just enough behaviour for the service rules under test; the SQL itself is
// covered by the sqlite package tests.

// wednesday is the fixed "now" for every calendar in this package:
// Wednesday 2026-10-14, ISO week starting Monday 2026-10-12.
var wednesday = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func fixedCalendar() Calendar {
	return Calendar{Now: func() time.Time { return wednesday }, Location: time.UTC}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func principal(id string) model.Principal {
	return model.Principal{UserID: id}
}

// --- users ---

type fakeUserRepo struct {
	users     map[string]*model.User
	ensureErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, id := range ids {
		f.users[id] = &model.User{ID: id, Username: id}
	}
	return f
}

func (f *fakeUserRepo) EnsureUser(_ context.Context, user *model.User) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if _, ok := f.users[user.ID]; !ok {
		copied := *user
		f.users[user.ID] = &copied
	}
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.Birthday != nil {
		u.Birthday = *patch.Birthday
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) SearchByUsername(_ context.Context, username string) ([]model.PublicProfile, error) {
	out := []model.PublicProfile{}
	for _, u := range f.users {
		if u.Username == username {
			out = append(out, model.PublicProfile{ID: u.ID, Username: u.Username})
		}
	}
	return out, nil
}

// --- friends ---

// fakeFriendRepo records the last call and returns err for every write.
type fakeFriendRepo struct {
	edges map[[2]string]model.FriendStatus
	err   error

	lastDirection model.Direction
}

var _ repository.FriendRepository = (*fakeFriendRepo)(nil)

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{edges: make(map[[2]string]model.FriendStatus)}
}

func (f *fakeFriendRepo) CreateRequest(_ context.Context, from, to string) (*model.FriendRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.edges[[2]string{from, to}]; ok {
		return nil, apperror.AlreadyExists("request already exists")
	}
	f.edges[[2]string{from, to}] = model.FriendPending
	return &model.FriendRequest{RequesterID: from, ReceiverID: to, Status: model.FriendPending, OtherUserID: to}, nil
}

func (f *fakeFriendRepo) ListRequests(_ context.Context, _ string, dir model.Direction) ([]model.FriendRequest, error) {
	f.lastDirection = dir
	return []model.FriendRequest{}, nil
}

func (f *fakeFriendRepo) AcceptRequest(_ context.Context, requester, me string) error {
	if f.err != nil {
		return f.err
	}
	status, ok := f.edges[[2]string{requester, me}]
	switch {
	case !ok:
		return apperror.NotFound("friend request", requester)
	case status == model.FriendRejected:
		return apperror.NotPending("friend request", requester, string(status))
	}
	f.edges[[2]string{requester, me}] = model.FriendAccepted
	f.edges[[2]string{me, requester}] = model.FriendAccepted
	return nil
}

func (f *fakeFriendRepo) DeclineRequest(_ context.Context, requester, me string) error {
	if f.edges[[2]string{requester, me}] != model.FriendPending {
		return apperror.NotFound("friend request", requester)
	}
	f.edges[[2]string{requester, me}] = model.FriendRejected
	return nil
}

func (f *fakeFriendRepo) CancelRequest(_ context.Context, me, receiver string) error {
	if f.edges[[2]string{me, receiver}] != model.FriendPending {
		return apperror.NotFound("friend request", receiver)
	}
	delete(f.edges, [2]string{me, receiver})
	return nil
}

func (f *fakeFriendRepo) ListFriends(_ context.Context, me string) ([]model.Friend, error) {
	out := []model.Friend{}
	for k, s := range f.edges {
		if k[0] == me && s == model.FriendAccepted {
			out = append(out, model.Friend{PublicProfile: model.PublicProfile{ID: k[1], Username: k[1]}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeFriendRepo) RemoveFriend(_ context.Context, me, other string) (int64, error) {
	var n int64
	for _, k := range [][2]string{{me, other}, {other, me}} {
		if _, ok := f.edges[k]; ok {
			delete(f.edges, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeFriendRepo) GetStatus(_ context.Context, from, to string) (model.FriendStatus, error) {
	if s, ok := f.edges[[2]string{from, to}]; ok {
		return s, nil
	}
	return model.FriendNone, nil
}

// --- garden ---

type fakeGardenRepo struct {
	weeks    map[string]*model.WeeklyGarden // key: user|monday
	checkins []model.FriendCheckin

	lastCheckin        repository.CheckinInput
	lastSince          string
	lastFriendsMonday  string
	lastFriendsWeekday int
}

var _ repository.GardenRepository = (*fakeGardenRepo)(nil)

func newFakeGardenRepo() *fakeGardenRepo {
	return &fakeGardenRepo{weeks: make(map[string]*model.WeeklyGarden)}
}

func (f *fakeGardenRepo) Checkin(_ context.Context, in repository.CheckinInput) (*model.WeeklyGarden, error) {
	f.lastCheckin = in
	key := in.UserID + "|" + in.WeekMonday
	g, ok := f.weeks[key]
	if !ok {
		g = &model.WeeklyGarden{UserID: in.UserID, WeekMonday: in.WeekMonday}
		f.weeks[key] = g
	}
	flower := in.Flower
	slots := []**string{&g.Image1, &g.Image2, &g.Image3, &g.Image4, &g.Image5, &g.Image6, &g.Image7}
	if *slots[in.Weekday-1] == nil {
		*slots[in.Weekday-1] = &flower
	}
	if g.PotImage == nil && in.PotImage != "" {
		pot := in.PotImage
		g.PotImage = &pot
	}
	g.CountEarned()
	copied := *g
	return &copied, nil
}

func (f *fakeGardenRepo) GetWeek(_ context.Context, userID, monday string) (*model.WeeklyGarden, error) {
	g, ok := f.weeks[userID+"|"+monday]
	if !ok {
		return nil, apperror.NotFound("garden week", monday)
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGardenRepo) ListSince(_ context.Context, userID, from string) ([]model.WeeklyGarden, error) {
	f.lastSince = from
	out := []model.WeeklyGarden{}
	for _, g := range f.weeks {
		if g.UserID == userID && g.WeekMonday >= from {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekMonday > out[j].WeekMonday })
	return out, nil
}

func (f *fakeGardenRepo) FriendsCheckins(_ context.Context, _ string, monday string, weekday int) ([]model.FriendCheckin, error) {
	f.lastFriendsMonday = monday
	f.lastFriendsWeekday = weekday
	out := make([]model.FriendCheckin, len(f.checkins))
	copy(out, f.checkins)
	return out, nil
}

// --- scores ---

type fakeScoreRepo struct {
	scores   map[string]model.DailyScore // key: user|date
	from, to string
}

var _ repository.ScoreRepository = (*fakeScoreRepo)(nil)

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[string]model.DailyScore)}
}

func (f *fakeScoreRepo) CreateScore(_ context.Context, s *model.DailyScore) error {
	key := s.UserID + "|" + s.ScoreDate
	if _, ok := f.scores[key]; ok {
		return apperror.AlreadyExists("score exists")
	}
	s.ID = "score-" + s.ScoreDate
	f.scores[key] = *s
	return nil
}

func (f *fakeScoreRepo) UpdateScore(_ context.Context, s *model.DailyScore) error {
	key := s.UserID + "|" + s.ScoreDate
	old, ok := f.scores[key]
	if !ok {
		return apperror.NotFound("score", s.ScoreDate)
	}
	s.ID = old.ID
	f.scores[key] = *s
	return nil
}

func (f *fakeScoreRepo) ScoresBetween(_ context.Context, userID, from, to string) ([]model.DailyScore, error) {
	f.from, f.to = from, to
	out := []model.DailyScore{}
	for _, s := range f.scores {
		if s.UserID == userID && s.ScoreDate >= from && s.ScoreDate <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- metrics ---

type fakeMetricsRepo struct {
	rows     map[string]model.DeviceMetrics // key: user|date
	batches  int
	from, to string
}

var _ repository.MetricsRepository = (*fakeMetricsRepo)(nil)

func newFakeMetricsRepo() *fakeMetricsRepo {
	return &fakeMetricsRepo{rows: make(map[string]model.DeviceMetrics)}
}

func (f *fakeMetricsRepo) UpsertMetrics(_ context.Context, m *model.DeviceMetrics) error {
	f.rows[m.UserID+"|"+m.LocalDate] = *m
	return nil
}

func (f *fakeMetricsRepo) UpsertMetricsBatch(ctx context.Context, rows []model.DeviceMetrics) ([]model.DeviceMetrics, error) {
	f.batches++
	for i := range rows {
		_ = f.UpsertMetrics(ctx, &rows[i])
	}
	return rows, nil
}

func (f *fakeMetricsRepo) GetMetrics(_ context.Context, userID, date string) (*model.DeviceMetrics, error) {
	m, ok := f.rows[userID+"|"+date]
	if !ok {
		return nil, apperror.NotFound("device metrics", date)
	}
	return &m, nil
}

func (f *fakeMetricsRepo) MetricsRange(_ context.Context, _ string, from, to string) ([]model.DeviceMetrics, error) {
	f.from, f.to = from, to
	return []model.DeviceMetrics{}, nil
}

func (f *fakeMetricsRepo) DeleteMetrics(_ context.Context, userID, date string) error {
	key := userID + "|" + date
	if _, ok := f.rows[key]; !ok {
		return apperror.NotFound("device metrics", date)
	}
	delete(f.rows, key)
	return nil
}

// --- diary ---

type fakeDiaryRepo struct {
	entries   []model.DiaryEntry
	reactions map[string]bool // key: entry|user|emoji
	comments  []model.DiaryComment
	lastPage  model.DiaryPage
	lastUser  string
}

var _ repository.DiaryRepository = (*fakeDiaryRepo)(nil)

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{reactions: make(map[string]bool)}
}

func (f *fakeDiaryRepo) find(id string) bool {
	for _, e := range f.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeDiaryRepo) CreateEntry(_ context.Context, e *model.DiaryEntry) error {
	e.ID = "entry-" + string(rune('a'+len(f.entries)))
	e.CreatedAt = wednesday
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeDiaryRepo) ListEntriesByUser(_ context.Context, userID, _ string, page model.DiaryPage) ([]model.DiaryEntry, error) {
	f.lastUser, f.lastPage = userID, page
	out := []model.DiaryEntry{}
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDiaryRepo) ListFriendsEntries(_ context.Context, me string, page model.DiaryPage) ([]model.DiaryEntry, error) {
	f.lastUser, f.lastPage = me, page
	return []model.DiaryEntry{}, nil
}

func (f *fakeDiaryRepo) DeleteEntry(_ context.Context, me, entryID string) error {
	for i, e := range f.entries {
		if e.ID == entryID && e.UserID == me {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("diary entry", entryID)
}

func (f *fakeDiaryRepo) AddReaction(_ context.Context, r *model.DiaryReaction) (bool, error) {
	if !f.find(r.EntryID) {
		return false, apperror.NotFound("diary entry", r.EntryID)
	}
	key := r.EntryID + "|" + r.UserID + "|" + r.Emoji
	if f.reactions[key] {
		return false, nil
	}
	f.reactions[key] = true
	return true, nil
}

func (f *fakeDiaryRepo) RemoveReaction(_ context.Context, me, entryID, emoji string) error {
	key := entryID + "|" + me + "|" + emoji
	if !f.reactions[key] {
		return apperror.NotFound("diary reaction", emoji)
	}
	delete(f.reactions, key)
	return nil
}

func (f *fakeDiaryRepo) AddComment(_ context.Context, c *model.DiaryComment) error {
	if !f.find(c.EntryID) {
		return apperror.NotFound("diary entry", c.EntryID)
	}
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeDiaryRepo) ListComments(_ context.Context, entryID string) ([]model.DiaryComment, error) {
	if !f.find(entryID) {
		return nil, apperror.NotFound("diary entry", entryID)
	}
	return f.comments, nil
}

func (f *fakeDiaryRepo) DeleteComment(_ context.Context, _, _, commentID string) error {
	return apperror.NotFound("diary comment", commentID)
}

// --- location ---

type fakeLocationRepo struct {
	rows     map[string]model.LocationSummary // key: user|date
	from, to string
}

var _ repository.LocationRepository = (*fakeLocationRepo)(nil)

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{rows: make(map[string]model.LocationSummary)}
}

func (f *fakeLocationRepo) UpsertLocation(_ context.Context, s *model.LocationSummary) error {
	f.rows[s.UserID+"|"+s.LocalDate] = *s
	return nil
}

func (f *fakeLocationRepo) GetLocation(_ context.Context, userID, date string) (*model.LocationSummary, error) {
	s, ok := f.rows[userID+"|"+date]
	if !ok {
		return nil, apperror.NotFound("location summary", date)
	}
	return &s, nil
}

func (f *fakeLocationRepo) LocationRange(_ context.Context, _ string, from, to string) ([]model.LocationSummary, error) {
	f.from, f.to = from, to
	return []model.LocationSummary{}, nil
}
