package utils

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"harbor-go/models"
)

// MemoryStore is a process-local Store used when no database is configured.
// Everything is lost on restart.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	guilds      map[string]*models.GuildSettings
	counters    map[string]int
	tickets     map[string]*models.Ticket
	transcripts map[string]*models.Transcript
	suggestions map[string]*models.Suggestion
	jackpot     int64
	jackpotSet  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*models.User),
		guilds:      make(map[string]*models.GuildSettings),
		counters:    make(map[string]int),
		tickets:     make(map[string]*models.Ticket),
		transcripts: make(map[string]*models.Transcript),
		suggestions: make(map[string]*models.Suggestion),
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close()                     {}

func (m *MemoryStore) GetUser(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *MemoryStore) CreateUser(_ context.Context, userID int64, wallet int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u.Clone(), nil
	}
	u := &models.User{
		UserID:    userID,
		Wallet:    wallet,
		Inventory: make(map[string]int),
		CreatedAt: time.Now().UTC(),
	}
	m.users[userID] = u
	return u.Clone(), nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, userID int64, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Wallet+upd.WalletIncrement < 0 || u.Bank+upd.BankIncrement < 0 {
		return nil, ErrInsufficientFunds
	}
	u.Apply(upd)
	return u.Clone(), nil
}

func (m *MemoryStore) DebitWallet(_ context.Context, userID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.Wallet < amount {
		return nil, ErrInsufficientFunds
	}
	u.Wallet -= amount
	return u.Clone(), nil
}

func (m *MemoryStore) MoveFunds(_ context.Context, userID int64, amount int64, toBank bool) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrInsufficientFunds
	}
	if toBank {
		if u.Wallet < amount {
			return nil, ErrInsufficientFunds
		}
		u.Wallet -= amount
		u.Bank += amount
	} else {
		if u.Bank < amount {
			return nil, ErrInsufficientFunds
		}
		u.Bank -= amount
		u.Wallet += amount
	}
	return u.Clone(), nil
}

func (m *MemoryStore) Transfer(_ context.Context, fromID, toID int64, amount int64) (*models.User, *models.User, error) {
	if fromID == toID {
		return nil, nil, ErrSelfTarget
	}
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.users[fromID]
	if !ok || from.Wallet < amount {
		return nil, nil, ErrInsufficientFunds
	}
	to, ok := m.users[toID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	from.Wallet -= amount
	to.Wallet += amount
	return from.Clone(), to.Clone(), nil
}

func (m *MemoryStore) AdjustItem(_ context.Context, userID int64, itemID string, delta int) (int, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if u.Inventory == nil {
		u.Inventory = make(map[string]int)
	}
	next := u.Inventory[itemID] + delta
	if next < 0 {
		return 0, ErrNotFound
	}
	if next == 0 {
		delete(u.Inventory, itemID)
	} else {
		u.Inventory[itemID] = next
	}
	return next, nil
}

func (m *MemoryStore) TopUsers(_ context.Context, limit int) ([]*models.User, error) {
	m.mu.Lock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].NetWorth() != out[j].NetWorth() {
			return out[i].NetWorth() > out[j].NetWorth()
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) GetGuildSettings(_ context.Context, guildID string) (*models.GuildSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guilds[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *g
	return &c, nil
}

func (m *MemoryStore) SaveGuildSettings(_ context.Context, g *models.GuildSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.UpdatedAt = time.Now().UTC()
	c := *g
	m.guilds[g.GuildID] = &c
	return nil
}

func (m *MemoryStore) NextCounter(_ context.Context, guildID, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := guildID + "/" + name
	m.counters[key]++
	return m.counters[key], nil
}

func cloneTicket(t *models.Ticket) *models.Ticket {
	c := *t
	if t.ClosedAt != nil {
		ts := *t.ClosedAt
		c.ClosedAt = &ts
	}
	return &c
}

func (m *MemoryStore) CreateTicket(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ChannelID]; ok {
		return ErrAlreadyExists
	}
	for _, existing := range m.tickets {
		if existing.IsOpen() && existing.GuildID == t.GuildID && existing.OwnerID == t.OwnerID {
			return ErrAlreadyExists
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.TicketOpen
	}
	m.tickets[t.ChannelID] = cloneTicket(t)
	return nil
}

func (m *MemoryStore) GetTicket(_ context.Context, channelID string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(t), nil
}

func (m *MemoryStore) GetOpenTicketByOwner(_ context.Context, guildID, ownerID string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.IsOpen() && t.GuildID == guildID && t.OwnerID == ownerID {
			return cloneTicket(t), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateTicket(_ context.Context, t *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ChannelID]; !ok {
		return ErrNotFound
	}
	m.tickets[t.ChannelID] = cloneTicket(t)
	return nil
}

func (m *MemoryStore) ListOpenTickets(context.Context) ([]*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Ticket
	for _, t := range m.tickets {
		if t.IsOpen() {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) SaveTranscript(_ context.Context, t *models.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.transcripts[t.ID] = &c
	return nil
}

func (m *MemoryStore) GetTranscript(_ context.Context, id string) (*models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *t
	return &c, nil
}

func suggestionKey(guildID string, number int) string {
	return guildID + "#" + strconv.Itoa(number)
}

func (m *MemoryStore) CreateSuggestion(_ context.Context, s *models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := suggestionKey(s.GuildID, s.Number)
	if _, ok := m.suggestions[key]; ok {
		return ErrAlreadyExists
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = models.SuggestionPending
	}
	m.suggestions[key] = s.Clone()
	// numbers restored from posted messages must not be handed out again
	if counter := s.GuildID + "/suggestion"; m.counters[counter] < s.Number {
		m.counters[counter] = s.Number
	}
	return nil
}

func (m *MemoryStore) GetSuggestion(_ context.Context, guildID string, number int) (*models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[suggestionKey(guildID, number)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) UpdateSuggestion(_ context.Context, s *models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := suggestionKey(s.GuildID, s.Number)
	if _, ok := m.suggestions[key]; !ok {
		return ErrNotFound
	}
	m.suggestions[key] = s.Clone()
	return nil
}

func (m *MemoryStore) MutateSuggestion(_ context.Context, guildID string, number int, messageID string, fn func(*models.Suggestion) error) (*models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := suggestionKey(guildID, number)
	cur, ok := m.suggestions[key]
	if !ok || !sameMessage(cur.MessageID, messageID) {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.suggestions[key] = next
	return next.Clone(), nil
}

func (m *MemoryStore) GetJackpot(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedJackpot()
	return m.jackpot, nil
}

func (m *MemoryStore) AddJackpot(_ context.Context, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedJackpot()
	m.jackpot += delta
	return m.jackpot, nil
}

func (m *MemoryStore) ResetJackpot(_ context.Context, seed int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedJackpot()
	won := m.jackpot
	m.jackpot = seed
	return won, nil
}

func (m *MemoryStore) seedJackpot() {
	if !m.jackpotSet {
		m.jackpot = JackpotSeed
		m.jackpotSet = true
	}
}
