package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"harbor-go/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the part of *pgxpool.Pool the store uses
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on top of pgx
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates missing tables and indexes
func (p *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() {
	p.pool.Close()
}

const userColumns = "user_id, wallet, bank, job, shifts, xp, last_daily, last_weekly, created_at"

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.UserID, &u.Wallet, &u.Bank, &u.Job, &u.Shifts, &u.XP, &u.LastDaily, &u.LastWeekly, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (p *PostgresStore) loadInventory(ctx context.Context, u *models.User) error {
	rows, err := p.pool.Query(ctx, "SELECT item_id, quantity FROM inventory WHERE user_id = $1 AND quantity > 0", u.UserID)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	defer rows.Close()

	u.Inventory = make(map[string]int)
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return fmt.Errorf("failed to scan inventory: %w", err)
		}
		u.Inventory[id] = qty
	}
	return rows.Err()
}

// userRow scans one user row and attaches its inventory
func (p *PostgresStore) userRow(ctx context.Context, row pgx.Row, noRows error) (*models.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, noRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if err := p.loadInventory(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *PostgresStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	row := p.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = $1", userID)
	return p.userRow(ctx, row, ErrNotFound)
}

func (p *PostgresStore) CreateUser(ctx context.Context, userID int64, wallet int64) (*models.User, error) {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO users (user_id, wallet) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING",
		userID, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return p.GetUser(ctx, userID)
}

func (p *PostgresStore) UpdateUser(ctx context.Context, userID int64, updates models.UserUpdate) (*models.User, error) {
	if updates.IsEmpty() {
		return p.GetUser(ctx, userID)
	}

	// Build dynamic query based on what fields need updating
	setParts := []string{}
	args := []interface{}{userID} // $1 will always be userID
	argIndex := 2

	add := func(expr string, v interface{}) {
		setParts = append(setParts, fmt.Sprintf(expr, argIndex))
		args = append(args, v)
		argIndex++
	}

	if updates.WalletIncrement != 0 {
		add("wallet = wallet + $%d", updates.WalletIncrement)
	}
	if updates.BankIncrement != 0 {
		add("bank = bank + $%d", updates.BankIncrement)
	}
	if updates.XPIncrement != 0 {
		add("xp = xp + $%d", updates.XPIncrement)
	}
	if updates.ResetShifts {
		add("shifts = $%d", updates.ShiftsIncrement)
	} else if updates.ShiftsIncrement != 0 {
		add("shifts = shifts + $%d", updates.ShiftsIncrement)
	}
	if updates.Job != nil {
		add("job = $%d", *updates.Job)
	}
	if updates.LastDaily != nil {
		add("last_daily = $%d", *updates.LastDaily)
	}
	if updates.LastWeekly != nil {
		add("last_weekly = $%d", *updates.LastWeekly)
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $1 RETURNING %s", strings.Join(setParts, ", "), userColumns)
	u, err := p.userRow(ctx, p.pool.QueryRow(ctx, query, args...), ErrNotFound)
	if err != nil && isCheckViolation(err) {
		return nil, ErrInsufficientFunds
	}
	return u, err
}

func (p *PostgresStore) DebitWallet(ctx context.Context, userID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	row := p.pool.QueryRow(ctx,
		"UPDATE users SET wallet = wallet - $2 WHERE user_id = $1 AND wallet >= $2 RETURNING "+userColumns,
		userID, amount)
	return p.userRow(ctx, row, ErrInsufficientFunds)
}

func (p *PostgresStore) MoveFunds(ctx context.Context, userID int64, amount int64, toBank bool) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	query := "UPDATE users SET wallet = wallet - $2, bank = bank + $2 WHERE user_id = $1 AND wallet >= $2 RETURNING " + userColumns
	if !toBank {
		query = "UPDATE users SET bank = bank - $2, wallet = wallet + $2 WHERE user_id = $1 AND bank >= $2 RETURNING " + userColumns
	}
	return p.userRow(ctx, p.pool.QueryRow(ctx, query, userID, amount), ErrInsufficientFunds)
}

func (p *PostgresStore) Transfer(ctx context.Context, fromID, toID int64, amount int64) (*models.User, *models.User, error) {
	if fromID == toID {
		return nil, nil, ErrSelfTarget
	}
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	// lock both rows in id order so concurrent opposite transfers can't deadlock
	if _, err := tx.Exec(ctx,
		"SELECT user_id FROM users WHERE user_id = ANY($1) ORDER BY user_id FOR UPDATE",
		[]int64{fromID, toID}); err != nil {
		return nil, nil, fmt.Errorf("failed to lock users: %w", err)
	}

	from, err := scanUser(tx.QueryRow(ctx,
		"UPDATE users SET wallet = wallet - $2 WHERE user_id = $1 AND wallet >= $2 RETURNING "+userColumns,
		fromID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to debit sender: %w", err)
	}

	to, err := scanUser(tx.QueryRow(ctx,
		"UPDATE users SET wallet = wallet + $2 WHERE user_id = $1 RETURNING "+userColumns,
		toID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to credit recipient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	if err := p.loadInventory(ctx, from); err != nil {
		return nil, nil, err
	}
	if err := p.loadInventory(ctx, to); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (p *PostgresStore) AdjustItem(ctx context.Context, userID int64, itemID string, delta int) (int, error) {
	if delta == 0 {
		return 0, ErrInvalidAmount
	}

	var qty int
	var err error
	if delta > 0 {
		err = p.pool.QueryRow(ctx,
			`INSERT INTO inventory (user_id, item_id, quantity) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity
			RETURNING quantity`,
			userID, itemID, delta).Scan(&qty)
	} else {
		err = p.pool.QueryRow(ctx,
			"UPDATE inventory SET quantity = quantity + $3 WHERE user_id = $1 AND item_id = $2 AND quantity + $3 >= 0 RETURNING quantity",
			userID, itemID, delta).Scan(&qty)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust inventory: %w", err)
	}
	return qty, nil
}

// TopUsers returns users ordered by net worth. Inventories are not loaded.
func (p *PostgresStore) TopUsers(ctx context.Context, limit int) ([]*models.User, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY wallet + bank DESC, user_id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const guildColumns = `guild_id, ticket_category_id, ticket_staff_role_id, ticket_log_channel_id,
	suggestion_channel_id, suggestion_result_channel_id, verified_role_id, unverified_role_id,
	verification_channel_id, updated_at`

func (p *PostgresStore) GetGuildSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	g := &models.GuildSettings{}
	err := p.pool.QueryRow(ctx, "SELECT "+guildColumns+" FROM guild_settings WHERE guild_id = $1", guildID).Scan(
		&g.GuildID, &g.TicketCategoryID, &g.TicketStaffRoleID, &g.TicketLogChannelID,
		&g.SuggestionChannelID, &g.SuggestionResultChannelID, &g.VerifiedRoleID, &g.UnverifiedRoleID,
		&g.VerificationChannelID, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}
	return g, nil
}

func (p *PostgresStore) SaveGuildSettings(ctx context.Context, g *models.GuildSettings) error {
	g.UpdatedAt = time.Now().UTC()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO guild_settings (`+guildColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (guild_id) DO UPDATE SET
			ticket_category_id = EXCLUDED.ticket_category_id,
			ticket_staff_role_id = EXCLUDED.ticket_staff_role_id,
			ticket_log_channel_id = EXCLUDED.ticket_log_channel_id,
			suggestion_channel_id = EXCLUDED.suggestion_channel_id,
			suggestion_result_channel_id = EXCLUDED.suggestion_result_channel_id,
			verified_role_id = EXCLUDED.verified_role_id,
			unverified_role_id = EXCLUDED.unverified_role_id,
			verification_channel_id = EXCLUDED.verification_channel_id,
			updated_at = EXCLUDED.updated_at`,
		g.GuildID, g.TicketCategoryID, g.TicketStaffRoleID, g.TicketLogChannelID,
		g.SuggestionChannelID, g.SuggestionResultChannelID, g.VerifiedRoleID, g.UnverifiedRoleID,
		g.VerificationChannelID, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

func (p *PostgresStore) NextCounter(ctx context.Context, guildID, name string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`INSERT INTO counters (guild_id, name, value) VALUES ($1, $2, 1)
		ON CONFLICT (guild_id, name) DO UPDATE SET value = counters.value + 1
		RETURNING value`,
		guildID, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return n, nil
}

const ticketColumns = "channel_id, guild_id, owner_id, number, reason, status, claimed_by, closed_by, transcript_id, created_at, closed_at"

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	t := &models.Ticket{}
	var status string
	err := row.Scan(&t.ChannelID, &t.GuildID, &t.OwnerID, &t.Number, &t.Reason, &status,
		&t.ClaimedBy, &t.ClosedBy, &t.TranscriptID, &t.CreatedAt, &t.ClosedAt)
	if err != nil {
		return nil, err
	}
	t.Status = models.TicketStatus(status)
	return t, nil
}

func (p *PostgresStore) CreateTicket(ctx context.Context, t *models.Ticket) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.TicketOpen
	}
	_, err := p.pool.Exec(ctx,
		"INSERT INTO tickets ("+ticketColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		t.ChannelID, t.GuildID, t.OwnerID, t.Number, t.Reason, string(t.Status),
		t.ClaimedBy, t.ClosedBy, t.TranscriptID, t.CreatedAt, t.ClosedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetTicket(ctx context.Context, channelID string) (*models.Ticket, error) {
	t, err := scanTicket(p.pool.QueryRow(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE channel_id = $1", channelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

func (p *PostgresStore) GetOpenTicketByOwner(ctx context.Context, guildID, ownerID string) (*models.Ticket, error) {
	t, err := scanTicket(p.pool.QueryRow(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE guild_id = $1 AND owner_id = $2 AND status = 'open'",
		guildID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open ticket: %w", err)
	}
	return t, nil
}

func (p *PostgresStore) UpdateTicket(ctx context.Context, t *models.Ticket) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE tickets SET status = $2, claimed_by = $3, closed_by = $4, transcript_id = $5, closed_at = $6
		WHERE channel_id = $1`,
		t.ChannelID, string(t.Status), t.ClaimedBy, t.ClosedBy, t.TranscriptID, t.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) ListOpenTickets(ctx context.Context) ([]*models.Ticket, error) {
	rows, err := p.pool.Query(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE status = 'open' ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var out []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveTranscript(ctx context.Context, t *models.Transcript) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO transcripts (id, guild_id, channel_id, owner_id, messages, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.GuildID, t.ChannelID, t.OwnerID, t.Messages, t.Content, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetTranscript(ctx context.Context, id string) (*models.Transcript, error) {
	t := &models.Transcript{}
	err := p.pool.QueryRow(ctx,
		"SELECT id, guild_id, channel_id, owner_id, messages, content, created_at FROM transcripts WHERE id = $1", id).
		Scan(&t.ID, &t.GuildID, &t.ChannelID, &t.OwnerID, &t.Messages, &t.Content, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return t, nil
}

const suggestionColumns = `guild_id, number, author_id, channel_id, message_id, content, upvoters, downvoters,
	status, reviewer_id, reason, created_at, decided_at`

func (p *PostgresStore) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = models.SuggestionPending
	}
	_, err := p.pool.Exec(ctx,
		"INSERT INTO suggestions ("+suggestionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
		s.GuildID, s.Number, s.AuthorID, s.ChannelID, s.MessageID, s.Content, nonNil(s.Upvoters), nonNil(s.Downvoters),
		string(s.Status), s.ReviewerID, s.Reason, s.CreatedAt, s.DecidedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetSuggestion(ctx context.Context, guildID string, number int) (*models.Suggestion, error) {
	s := &models.Suggestion{}
	var status string
	err := p.pool.QueryRow(ctx,
		"SELECT "+suggestionColumns+" FROM suggestions WHERE guild_id = $1 AND number = $2", guildID, number).
		Scan(&s.GuildID, &s.Number, &s.AuthorID, &s.ChannelID, &s.MessageID, &s.Content, &s.Upvoters, &s.Downvoters,
			&status, &s.ReviewerID, &s.Reason, &s.CreatedAt, &s.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	s.Status = models.SuggestionStatus(status)
	return s, nil
}

func (p *PostgresStore) UpdateSuggestion(ctx context.Context, s *models.Suggestion) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE suggestions SET channel_id = $3, message_id = $4, upvoters = $5, downvoters = $6,
			status = $7, reviewer_id = $8, reason = $9, decided_at = $10
		WHERE guild_id = $1 AND number = $2`,
		s.GuildID, s.Number, s.ChannelID, s.MessageID, nonNil(s.Upvoters), nonNil(s.Downvoters),
		string(s.Status), s.ReviewerID, s.Reason, s.DecidedAt)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) MutateSuggestion(ctx context.Context, guildID string, number int, messageID string, fn func(*models.Suggestion) error) (*models.Suggestion, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin suggestion update: %w", err)
	}
	defer tx.Rollback(ctx)

	s := &models.Suggestion{}
	var status string
	err = tx.QueryRow(ctx,
		"SELECT "+suggestionColumns+" FROM suggestions WHERE guild_id = $1 AND number = $2 FOR UPDATE", guildID, number).
		Scan(&s.GuildID, &s.Number, &s.AuthorID, &s.ChannelID, &s.MessageID, &s.Content, &s.Upvoters, &s.Downvoters,
			&status, &s.ReviewerID, &s.Reason, &s.CreatedAt, &s.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock suggestion: %w", err)
	}
	s.Status = models.SuggestionStatus(status)
	if !sameMessage(s.MessageID, messageID) {
		return nil, ErrNotFound
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE suggestions SET upvoters = $3, downvoters = $4, status = $5, reviewer_id = $6, reason = $7, decided_at = $8
		WHERE guild_id = $1 AND number = $2`,
		guildID, number, nonNil(s.Upvoters), nonNil(s.Downvoters),
		string(s.Status), s.ReviewerID, s.Reason, s.DecidedAt); err != nil {
		return nil, fmt.Errorf("failed to update suggestion: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit suggestion: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) GetJackpot(ctx context.Context) (int64, error) {
	var amount int64
	err := p.pool.QueryRow(ctx, "SELECT amount FROM jackpots WHERE id = 1").Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.initJackpot(ctx, JackpotSeed)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get jackpot: %w", err)
	}
	return amount, nil
}

func (p *PostgresStore) initJackpot(ctx context.Context, amount int64) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO jackpots (id, amount) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET amount = jackpots.amount
		RETURNING amount`, amount).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize jackpot: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) AddJackpot(ctx context.Context, delta int64) (int64, error) {
	var amount int64
	err := p.pool.QueryRow(ctx, "UPDATE jackpots SET amount = amount + $1 WHERE id = 1 RETURNING amount", delta).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := p.initJackpot(ctx, JackpotSeed); err != nil {
			return 0, err
		}
		return p.AddJackpot(ctx, delta)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update jackpot: %w", err)
	}
	return amount, nil
}

func (p *PostgresStore) ResetJackpot(ctx context.Context, seed int64) (int64, error) {
	var won int64
	err := p.pool.QueryRow(ctx,
		`WITH old AS (SELECT amount FROM jackpots WHERE id = 1 FOR UPDATE)
		UPDATE jackpots SET amount = $1 FROM old WHERE jackpots.id = 1
		RETURNING old.amount`, seed).Scan(&won)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.initJackpot(ctx, seed)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reset jackpot: %w", err)
	}
	return won, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}
