// Package store persists per-user state in SQLite: active tasks, memories,
// skills, conversation turns and the daily activity the context window
// draws from.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/intent"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

const dayLayout = "2006-01-02"

// Read limits for assembling a classification input.
const (
	historyLimit  = 20
	outboundLimit = 5
	memoryLimit   = 10
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS tasks (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    summary      TEXT NOT NULL,
    due_at       TEXT,
    priority     TEXT NOT NULL DEFAULT '',
    completed_at TEXT,
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, completed_at);

CREATE TABLE IF NOT EXISTS memories (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);

CREATE TABLE IF NOT EXISTS skills (
    user_id  TEXT NOT NULL,
    skill_id TEXT NOT NULL,
    name     TEXT NOT NULL,
    PRIMARY KEY (user_id, skill_id)
);

CREATE TABLE IF NOT EXISTS messages (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, seq);

CREATE TABLE IF NOT EXISTS outbound (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outbound_user ON outbound(user_id, seq);

CREATE TABLE IF NOT EXISTS profiles (
    user_id      TEXT PRIMARY KEY,
    profile      TEXT NOT NULL DEFAULT '',
    language     TEXT NOT NULL DEFAULT '',
    partner_name TEXT NOT NULL DEFAULT '',
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_logs (
    user_id TEXT NOT NULL,
    day     TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (user_id, day)
);

CREATE TABLE IF NOT EXISTS patterns (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    description TEXT NOT NULL,
    confidence  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patterns_user ON patterns(user_id);
`

// Profile is the per-user settings row.
type Profile struct {
	Text        string `json:"profile"`
	Language    string `json:"language"`
	PartnerName string `json:"partner_name"`
}

// SQLiteStore is a SQLite-backed store. It is safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path (~/.local/share/olive/olive.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "olive", "olive.db"), nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// AddTask inserts an open task and returns it with its generated id.
func (s *SQLiteStore) AddTask(ctx context.Context, userID, summary string, due *time.Time, priority string) (intent.Task, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return intent.Task{}, fmt.Errorf("add task: empty summary")
	}
	t := intent.Task{ID: uuid.NewString(), Summary: summary, DueDate: due, Priority: priority}

	var dueAt sql.NullString
	if due != nil {
		dueAt = sql.NullString{String: due.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, summary, due_at, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, userID, t.Summary, dueAt, priority, timestamp())
	if err != nil {
		return intent.Task{}, fmt.Errorf("add task: %w", err)
	}
	return t, nil
}

// CompleteTask marks an open task done so it leaves the active set.
func (s *SQLiteStore) CompleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed_at = ?
		WHERE id = ? AND user_id = ? AND completed_at IS NULL`,
		timestamp(), taskID, userID)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

// ActiveTasks returns open tasks, oldest first.
func (s *SQLiteStore) ActiveTasks(ctx context.Context, userID string) ([]intent.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, due_at, priority FROM tasks
		WHERE user_id = ? AND completed_at IS NULL
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []intent.Task
	for rows.Next() {
		var t intent.Task
		var dueAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Summary, &dueAt, &t.Priority); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if dueAt.Valid {
			if d, err := time.Parse(time.RFC3339, dueAt.String); err == nil {
				t.DueDate = &d
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) AddMemory(ctx context.Context, userID string, m intent.Memory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, title, content, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, m.Title, m.Content, m.Category, timestamp())
	if err != nil {
		return fmt.Errorf("add memory: %w", err)
	}
	return nil
}

// Memories returns the newest memories first.
func (s *SQLiteStore) Memories(ctx context.Context, userID string, limit int) ([]intent.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, content, category FROM memories
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []intent.Memory
	for rows.Next() {
		var m intent.Memory
		if err := rows.Scan(&m.Title, &m.Content, &m.Category); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddSkill activates a skill; activating it again renames it.
func (s *SQLiteStore) AddSkill(ctx context.Context, userID string, sk intent.Skill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO skills (user_id, skill_id, name) VALUES (?, ?, ?)`,
		userID, sk.SkillID, sk.Name)
	if err != nil {
		return fmt.Errorf("add skill: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Skills(ctx context.Context, userID string) ([]intent.Skill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT skill_id, name FROM skills WHERE user_id = ? ORDER BY skill_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var out []intent.Skill
	for rows.Next() {
		var sk intent.Skill
		if err := rows.Scan(&sk.SkillID, &sk.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, userID string, m conversation.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, string(m.Role), m.Content, timestamp())
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// History returns up to limit most recent turns in chronological order.
func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]conversation.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var role string
		if err := rows.Scan(&role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = conversation.Role(role)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// AppendOutbound records a message Olive sent proactively.
func (s *SQLiteStore) AppendOutbound(ctx context.Context, userID, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbound (user_id, content, created_at) VALUES (?, ?, ?)`,
		userID, content, timestamp())
	if err != nil {
		return fmt.Errorf("append outbound: %w", err)
	}
	return nil
}

// Outbound returns up to limit recent outbound messages, oldest first.
func (s *SQLiteStore) Outbound(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM outbound
		WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load outbound: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan outbound: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (s *SQLiteStore) SetProfile(ctx context.Context, userID string, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (user_id, profile, language, partner_name, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, p.Text, p.Language, p.PartnerName, timestamp())
	if err != nil {
		return fmt.Errorf("set profile: %w", err)
	}
	return nil
}

// Profile returns the user's profile; a missing row is an empty profile.
func (s *SQLiteStore) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT profile, language, partner_name FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.Text, &p.Language, &p.PartnerName)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// SetDailyLog replaces the activity log for the calendar day of day.
func (s *SQLiteStore) SetDailyLog(ctx context.Context, userID string, day time.Time, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO daily_logs (user_id, day, content) VALUES (?, ?, ?)`,
		userID, day.Format(dayLayout), content)
	if err != nil {
		return fmt.Errorf("set daily log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) dailyLog(ctx context.Context, userID string, day time.Time) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT content FROM daily_logs WHERE user_id = ? AND day = ?`,
		userID, day.Format(dayLayout)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load daily log: %w", err)
	}
	return content, nil
}

func (s *SQLiteStore) AddPattern(ctx context.Context, userID string, p contextmgr.Pattern) error {
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("add pattern: confidence %v outside [0,1]", p.Confidence)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, user_id, description, confidence) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, p.Description, p.Confidence)
	if err != nil {
		return fmt.Errorf("add pattern: %w", err)
	}
	return nil
}

func (s *SQLiteStore) patterns(ctx context.Context, userID string) ([]contextmgr.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, confidence FROM patterns
		WHERE user_id = ? ORDER BY confidence DESC, description`, userID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []contextmgr.Pattern
	for rows.Next() {
		var p contextmgr.Pattern
		if err := rows.Scan(&p.Description, &p.Confidence); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MemoryContext assembles the profile, the logs for the day of now and
// the day before, and observed patterns.
func (s *SQLiteStore) MemoryContext(ctx context.Context, userID string, now time.Time) (*contextmgr.MemoryContext, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, err := s.dailyLog(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	yesterday, err := s.dailyLog(ctx, userID, now.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	patterns, err := s.patterns(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &contextmgr.MemoryContext{
		Profile:      p.Text,
		TodayLog:     today,
		YesterdayLog: yesterday,
		Patterns:     patterns,
	}, nil
}

// ClassificationInput snapshots everything the classifier needs for one
// message. The prompt builder applies its own caps on top of these reads.
func (s *SQLiteStore) ClassificationInput(ctx context.Context, userID, message string, now time.Time) (intent.Input, error) {
	in := intent.Input{Message: message, Now: now}

	var err error
	if in.ConversationHistory, err = s.History(ctx, userID, historyLimit); err != nil {
		return intent.Input{}, err
	}
	if in.RecentOutboundMessages, err = s.Outbound(ctx, userID, outboundLimit); err != nil {
		return intent.Input{}, err
	}
	if in.ActiveTasks, err = s.ActiveTasks(ctx, userID); err != nil {
		return intent.Input{}, err
	}
	if in.UserMemories, err = s.Memories(ctx, userID, memoryLimit); err != nil {
		return intent.Input{}, err
	}
	if in.ActivatedSkills, err = s.Skills(ctx, userID); err != nil {
		return intent.Input{}, err
	}
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return intent.Input{}, err
	}
	in.UserLanguage = p.Language
	in.PartnerName = p.PartnerName
	return in, nil
}
