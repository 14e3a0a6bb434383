// Package session implements the partner-relationship state machine that
// sits between the WebSocket transport and the matching queue. A user is
// Idle (registered, no partner, not queued), Waiting (in the queue) or
// Paired (reciprocal partner ids). Every externally triggered operation —
// an inbound event or a reaper tick — runs as one atomic step under the
// manager's mutex, so no caller ever observes a half-applied pairing.
package session

import (
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rsslry1/WhoU/internal/block"
	"github.com/rsslry1/WhoU/internal/directory"
	"github.com/rsslry1/WhoU/internal/matching"
	"github.com/rsslry1/WhoU/internal/metrics"
	"github.com/rsslry1/WhoU/internal/moderation"
	"github.com/rsslry1/WhoU/internal/protocol"
	"github.com/rsslry1/WhoU/internal/ratelimit"
	"github.com/rsslry1/WhoU/internal/report"
)

// Sender delivers events to connected clients. Delivery is best-effort: a
// failed or missing connection drops the event without surfacing an error to
// the originating user. Implemented by the ws server.
type Sender interface {
	SendMessage(connID string, data []byte) error
	Broadcast(data []byte)
}

// Config holds the tunable limits of the state machine.
type Config struct {
	MessageRule     ratelimit.Rule // per-user message budget
	MaxMessageChars int            // relayed message length cap, in characters
	IdleTimeout     time.Duration  // inactivity cutoff enforced by the reaper
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		MessageRule:     ratelimit.RuleMessage,
		MaxMessageChars: 1000,
		IdleTimeout:     5 * time.Minute,
	}
}

// teardown reasons control what the surviving partner is told.
const (
	reasonNext       = iota // silent: partner is just re-enqueued
	reasonLeave             // partner receives partner-left
	reasonDisconnect        // partner receives partner-disconnected
)

// Manager is the single owner of all mutable chat state: the user directory,
// the waiting queue, block sets, rate-limit windows and the report log.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	dir     *directory.Directory
	queue   *matching.Queue
	blocks  *block.List
	limiter *ratelimit.Limiter
	filter  *moderation.Filter
	reports *report.Log
	sender  Sender
	now     func() time.Time // overridable for tests
}

// NewManager creates a Manager that delivers events through the given Sender.
func NewManager(cfg Config, sender Sender) *Manager {
	return &Manager{
		cfg:     cfg,
		dir:     directory.New(),
		queue:   matching.New(),
		blocks:  block.New(),
		limiter: ratelimit.NewLimiter(cfg.MessageRule),
		filter:  moderation.NewFilter(),
		reports: report.NewLog(),
		sender:  sender,
	}
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// ---------------------------------------------------------------------------
// Transport-facing handlers. Each is one atomic step over the shared state.
// ---------------------------------------------------------------------------

// OnConnect handles a new connection. The user is not registered until it
// joins the queue; connecting only refreshes the aggregate counts clients see.
func (m *Manager) OnConnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastCountsLocked()
}

// OnJoinQueue registers (or re-registers) the user under the given display
// name and enters it into the waiting queue. A paired user that re-joins has
// its pairing unwound silently after validation, so the ex-partner never
// dangles. A rejected name leaves all state untouched, including any
// existing pairing.
func (m *Manager) OnJoinQueue(id, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.dir.Register(id, username, m.clock())
	if err != nil {
		m.sendErrorLocked(id, protocol.CodeInvalidUsername, "Invalid username")
		return
	}

	m.endChatLocked(id, reasonNext)

	m.queue.Enqueue(id)
	log.Printf("session: %s joined the queue as %q (queue size: %d)", id, u.DisplayName, m.queue.Len())

	m.matchLocked()
	m.broadcastCountsLocked()
}

// OnMessage relays a chat message to the sender's partner after rate
// limiting and profanity redaction. Delivery to the partner is best-effort.
func (m *Manager) OnMessage(id, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.dir.Lookup(id)
	if u == nil || !u.Paired() {
		metrics.MessagesTotal.WithLabelValues("not_matched").Inc()
		m.sendErrorLocked(id, protocol.CodeNotMatched, "Not matched with anyone")
		return
	}

	if !m.limiter.Allow(id) {
		metrics.MessagesTotal.WithLabelValues("rate_limited").Inc()
		m.sendErrorLocked(id, protocol.CodeRateLimited, "Please slow down. You are sending messages too quickly.")
		return
	}

	// Empty messages are dropped silently and never counted.
	if strings.TrimSpace(text) == "" {
		metrics.MessagesTotal.WithLabelValues("dropped_empty").Inc()
		return
	}

	if utf8.RuneCountInString(text) > m.cfg.MaxMessageChars {
		metrics.MessagesTotal.WithLabelValues("too_long").Inc()
		m.sendErrorLocked(id, protocol.CodeMessageTooLong, "Message too long (max 1000 characters)")
		return
	}

	// The message will actually be relayed: only now does it count.
	m.limiter.Consume(id)
	now := m.clock()
	m.dir.Touch(id, now)
	m.dir.Touch(u.PartnerID, now)

	delivered := m.sendEventLocked(u.PartnerID, protocol.TypeMessage, protocol.ServerChatMsg{
		Message: m.filter.Redact(text),
	})
	if delivered {
		metrics.MessagesTotal.WithLabelValues("relayed").Inc()
	} else {
		metrics.MessagesTotal.WithLabelValues("undeliverable").Inc()
	}
}

// OnTyping forwards a typing indicator to the current partner. No-op when
// unpaired.
func (m *Manager) OnTyping(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.dir.Lookup(id); u != nil && u.Paired() {
		m.sendEventLocked(u.PartnerID, protocol.TypePartnerTyping, protocol.PartnerTypingMsg{})
	}
}

// OnStoppedTyping forwards the end of a typing indicator to the current
// partner. No-op when unpaired.
func (m *Manager) OnStoppedTyping(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.dir.Lookup(id); u != nil && u.Paired() {
		m.sendEventLocked(u.PartnerID, protocol.TypePartnerStoppedTyping, protocol.PartnerStoppedTypingMsg{})
	}
}

// OnNext skips to a new partner: the current pairing is torn down silently
// (the ex-partner is re-enqueued without a notification) and the user goes
// back into the queue. The two may be matched again immediately if nobody
// else is waiting.
func (m *Manager) OnNext(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.endChatLocked(id, reasonNext)
	if m.dir.Lookup(id) != nil {
		m.queue.Enqueue(id)
	}
	m.matchLocked()
	m.broadcastCountsLocked()
}

// OnLeaveChat ends the current chat: the ex-partner is told partner-left and
// re-enqueued; the leaving user goes Idle and is not re-enqueued. Calling it
// without a partner only ensures queue membership is absent.
func (m *Manager) OnLeaveChat(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.endChatLocked(id, reasonLeave)
	m.queue.Remove(id)
	m.matchLocked()
	m.broadcastCountsLocked()
}

// OnReport files an abuse report against the current partner and blocks the
// partner from the reporter's future matches. It does not end the chat —
// reporting and leaving are independent actions. No-op when unpaired.
func (m *Manager) OnReport(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.dir.Lookup(id)
	if u == nil || !u.Paired() {
		return
	}

	r := m.reports.Append(id, u.PartnerID, strings.TrimSpace(reason), m.clock())
	m.blocks.Add(id, u.PartnerID)
	metrics.ReportsTotal.Inc()
	log.Printf("session: report %s filed: %s reported %s", r.ID, id, u.PartnerID)
}

// OnDisconnect unwinds the departing user entirely: any pairing is torn down
// with a partner-disconnected notification, queue membership and the
// directory entry are removed, and rate-limit plus block state is dropped.
// Safe to call for ids that never joined, and idempotent.
func (m *Manager) OnDisconnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.endChatLocked(id, reasonDisconnect)
	m.queue.Remove(id)
	if m.dir.Remove(id) {
		m.limiter.Forget(id)
		m.blocks.RemoveUser(id)
		log.Printf("session: %s removed (online: %d)", id, m.dir.Len())
	}
	m.matchLocked()
	m.broadcastCountsLocked()
}

// Counts returns the current aggregate breakdown.
func (m *Manager) Counts() directory.Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir.Counts()
}

// Reports returns a snapshot of the abuse report log.
func (m *Manager) Reports() []report.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports.All()
}

// IdleUsers returns the ids of users whose last activity is older than the
// configured idle timeout. The reaper closes their connections outside the
// state lock; the resulting disconnect callbacks re-enter through
// OnDisconnect like any other teardown.
func (m *Manager) IdleUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir.IdleSince(m.clock().Add(-m.cfg.IdleTimeout))
}

// ---------------------------------------------------------------------------
// Internal steps. All require m.mu held.
// ---------------------------------------------------------------------------

// matchLocked runs one pairing pass and commits the resulting pairs: both
// partner ids are set, both sides are notified with the peer's display name.
func (m *Manager) matchLocked() {
	pairs := m.queue.Match(
		func(id string) bool { return m.dir.Lookup(id) != nil },
		m.blocks.Either,
	)

	now := m.clock()
	for _, p := range pairs {
		a := m.dir.Lookup(p.A)
		b := m.dir.Lookup(p.B)
		a.PartnerID = b.ID
		b.PartnerID = a.ID
		a.LastActiveAt = now
		b.LastActiveAt = now

		m.sendEventLocked(a.ID, protocol.TypeMatched, protocol.MatchedMsg{PartnerUsername: b.DisplayName})
		m.sendEventLocked(b.ID, protocol.TypeMatched, protocol.MatchedMsg{PartnerUsername: a.DisplayName})

		metrics.MatchesTotal.Inc()
		log.Printf("session: matched %q <-> %q", a.DisplayName, b.DisplayName)
	}
}

// endChatLocked tears down the user's pairing, if any. The surviving partner
// is notified according to reason and re-enqueued. Idempotent: a user with no
// partner is left untouched.
func (m *Manager) endChatLocked(id string, reason int) {
	u := m.dir.Lookup(id)
	if u == nil || !u.Paired() {
		return
	}

	partnerID := u.PartnerID
	u.PartnerID = ""

	p := m.dir.Lookup(partnerID)
	if p == nil {
		return
	}
	p.PartnerID = ""

	switch reason {
	case reasonLeave:
		m.sendEventLocked(p.ID, protocol.TypePartnerLeft, protocol.PartnerLeftMsg{})
	case reasonDisconnect:
		m.sendEventLocked(p.ID, protocol.TypePartnerDisconnected, protocol.PartnerDisconnectedMsg{})
	case reasonNext:
		// Silent: the partner only finds out by being matched with someone new.
	}

	m.queue.Enqueue(p.ID)
}

// sendEventLocked builds and delivers one event to a connection. Best-effort:
// an unreachable peer drops the event and returns false. The write itself is
// bounded by the transport's write deadline, so holding the state lock across
// it cannot stall the matcher on a dead peer.
func (m *Manager) sendEventLocked(id, msgType string, payload interface{}) bool {
	data, err := protocol.NewServerMessage(msgType, payload)
	if err != nil {
		log.Printf("session: failed to build %s for %s: %v", msgType, id, err)
		return false
	}
	if err := m.sender.SendMessage(id, data); err != nil {
		return false
	}
	return true
}

// sendErrorLocked reports an error condition to the offending connection only.
func (m *Manager) sendErrorLocked(id, code, message string) {
	m.sendEventLocked(id, protocol.TypeError, protocol.ErrorMsg{Code: code, Message: message})
}

// broadcastCountsLocked recomputes the aggregate counts, pushes them to all
// connected clients and refreshes the gauges.
func (m *Manager) broadcastCountsLocked() {
	c := m.dir.Counts()

	metrics.OnlineUsers.Set(float64(c.Online))
	metrics.MatchQueueSize.Set(float64(m.queue.Len()))
	metrics.ActiveChats.Set(float64(c.Chatting))

	data, err := protocol.NewServerMessage(protocol.TypeOnlineCount, protocol.OnlineCountMsg{
		Online:   c.Online,
		Waiting:  c.Waiting,
		Chatting: c.Chatting,
	})
	if err != nil {
		log.Printf("session: failed to build online-count: %v", err)
		return
	}
	m.sender.Broadcast(data)
}
