package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/runoshun/agent-swarm/internal/domain"
)

const (
	mappingColumns = `id, provider, external_id, agent_id, created_at`
	messageColumns = `id, agent_id, source, event_id, channel_id, thread_id, sender, subject, body, is_read, created_at`
)

// InboxStore implements domain.InboxRepository.
type InboxStore struct {
	s *Store
}

var _ domain.InboxRepository = (*InboxStore)(nil)

func scanMapping(row scanner) (*domain.InboxMapping, error) {
	var (
		m        domain.InboxMapping
		provider string
		created  int64
	)
	if err := row.Scan(&m.ID, &provider, &m.ExternalID, &m.AgentID, &created); err != nil {
		return nil, err
	}
	m.Provider = domain.Source(provider)
	m.CreatedAt = fromMillis(created)
	return &m, nil
}

func scanMessage(row scanner) (*domain.InboxMessage, error) {
	var (
		m       domain.InboxMessage
		source  string
		read    int
		created int64
	)
	if err := row.Scan(&m.ID, &m.AgentID, &source, &m.EventID, &m.ChannelID, &m.ThreadID, &m.Sender, &m.Subject,
		&m.Body, &read, &created); err != nil {
		return nil, err
	}
	m.Source = domain.Source(source)
	m.Read = read != 0
	m.CreatedAt = fromMillis(created)
	return &m, nil
}

// SaveMapping creates or replaces the mapping for (Provider, ExternalID).
func (is *InboxStore) SaveMapping(ctx context.Context, m *domain.InboxMapping) error {
	_, err := is.s.db.ExecContext(ctx, is.s.q(`INSERT INTO inbox_mappings (`+mappingColumns+`) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (provider, external_id) DO UPDATE SET agent_id = excluded.agent_id, created_at = excluded.created_at`),
		m.ID, string(m.Provider), m.ExternalID, m.AgentID, millis(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("save inbox mapping: %w", err)
	}
	return nil
}

// GetMapping returns the mapping for an external inbox or channel. Returns nil if none.
func (is *InboxStore) GetMapping(ctx context.Context, provider domain.Source, externalID string) (*domain.InboxMapping, error) {
	m, err := scanMapping(is.s.db.QueryRowContext(ctx, is.s.q(`SELECT `+mappingColumns+` FROM inbox_mappings
WHERE provider = ? AND external_id = ?`), string(provider), externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inbox mapping: %w", err)
	}
	return m, nil
}

// DeleteMapping removes a mapping.
func (is *InboxStore) DeleteMapping(ctx context.Context, provider domain.Source, externalID string) error {
	res, err := is.s.db.ExecContext(ctx, is.s.q(`DELETE FROM inbox_mappings WHERE provider = ? AND external_id = ?`),
		string(provider), externalID)
	if err != nil {
		return fmt.Errorf("delete inbox mapping: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrMappingNotFound, provider, externalID)
	}
	return nil
}

// ListMappings retrieves all mappings ordered by provider and external ID.
func (is *InboxStore) ListMappings(ctx context.Context) ([]*domain.InboxMapping, error) {
	rows, err := is.s.db.QueryContext(ctx, `SELECT `+mappingColumns+` FROM inbox_mappings ORDER BY provider, external_id`)
	if err != nil {
		return nil, fmt.Errorf("list inbox mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.InboxMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("read inbox mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMessage inserts an inbox message.
func (is *InboxStore) CreateMessage(ctx context.Context, m *domain.InboxMessage) error {
	_, err := is.s.db.ExecContext(ctx, is.s.q(`INSERT INTO inbox_messages (`+messageColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.AgentID, string(m.Source), m.EventID, m.ChannelID, m.ThreadID, m.Sender, m.Subject, m.Body,
		boolInt(m.Read), millis(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert inbox message: %w", err)
	}
	return nil
}

// ListMessages retrieves messages, newest first.
func (is *InboxStore) ListMessages(ctx context.Context, filter domain.MessageFilter) ([]*domain.InboxMessage, error) {
	var (
		where []string
		args  []any
	)
	if filter.AgentID != "" {
		where = append(where, "agent_id = ?")
		args = append(args, filter.AgentID)
	}
	if filter.UnreadOnly {
		where = append(where, "is_read = 0")
	}
	query := `SELECT ` + messageColumns + ` FROM inbox_messages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := is.s.db.QueryContext(ctx, is.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list inbox messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.InboxMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("read inbox message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flags a message as read.
func (is *InboxStore) MarkRead(ctx context.Context, id string) error {
	res, err := is.s.db.ExecContext(ctx, is.s.q(`UPDATE inbox_messages SET is_read = 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMessageNotFound, id)
	}
	return nil
}
