// Package scheduler runs saved social trackers and pushes new matching
// posts to the chats that own them.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"agency_bot/internal/bot"
	"agency_bot/internal/filter"
	"agency_bot/internal/model"
	"agency_bot/internal/storage"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// PostSource supplies the social posts trackers are matched against.
type PostSource interface {
	Posts(ctx context.Context) ([]model.SocialPost, error)
}

// Telegram allows roughly 20 messages per second per bot.
const sendInterval = 50 * time.Millisecond

// Scheduler periodically checks saved trackers and sends notifications.
type Scheduler struct {
	store   storage.Storage
	source  PostSource
	sender  Sender
	log     *slog.Logger
	tick    time.Duration
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Scheduler that checks trackers every 15 minutes.
func New(store storage.Storage, source PostSource, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		source:  source,
		sender:  sender,
		log:     log,
		tick:    15 * time.Minute,
		limiter: rate.NewLimiter(rate.Every(sendInterval), 1),
		now:     time.Now,
	}
}

// SetTickInterval overrides the default check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetSendLimit overrides how fast notifications are sent.
func (s *Scheduler) SetSendLimit(limit rate.Limit, burst int) {
	s.limiter = rate.NewLimiter(limit, burst)
}

// SetClock overrides the time source used to decide which trackers are active.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

type tracker struct {
	saved model.SavedFilter
	spec  model.TrackerSpec
}

func (s *Scheduler) checkAll(ctx context.Context) {
	active, err := s.activeTrackers(ctx)
	if err != nil {
		s.log.Error("list trackers", "error", err)
		return
	}
	if len(active) == 0 {
		return
	}

	posts, err := s.source.Posts(ctx)
	if err != nil {
		s.log.Error("fetch posts", "error", err)
		return
	}

	for _, t := range active {
		if ctx.Err() != nil {
			return
		}
		s.processTracker(ctx, t, posts)
	}
}

func (s *Scheduler) activeTrackers(ctx context.Context) ([]tracker, error) {
	saved, err := s.store.ListTrackers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var active []tracker
	for _, f := range saved {
		var spec model.TrackerSpec
		if err := json.Unmarshal(f.Filters, &spec); err != nil {
			s.log.Error("decode tracker", "filter_id", f.ID, "error", err)
			continue
		}
		if !spec.Active(now) {
			continue
		}
		active = append(active, tracker{saved: f, spec: spec})
	}
	return active, nil
}

func (s *Scheduler) processTracker(ctx context.Context, t tracker, posts []model.SocialPost) {
	s.log.Debug("checking tracker", "filter_id", t.saved.ID, "name", t.saved.Name)

	matched := filter.Posts(posts, t.spec)

	sent := 0
	for _, post := range matched {
		seen, err := s.store.IsSeen(ctx, t.saved.ID, post.GUID)
		if err != nil {
			s.log.Error("check seen", "filter_id", t.saved.ID, "guid", post.GUID, "error", err)
			continue
		}
		if seen {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		s.sender.SendMessage(t.saved.ChatID, bot.FormatPost(t.saved.Name, post))
		sent++

		if err := s.store.MarkSeen(ctx, t.saved.ID, post.GUID); err != nil {
			s.log.Error("mark seen", "filter_id", t.saved.ID, "guid", post.GUID, "error", err)
		}
	}

	if sent > 0 {
		s.log.Info("sent notifications", "filter_id", t.saved.ID, "name", t.saved.Name, "count", sent)
	}

	if err := s.store.UpdateResultCount(ctx, t.saved.ID, len(matched)); err != nil {
		s.log.Error("update result count", "filter_id", t.saved.ID, "error", err)
	}
}
