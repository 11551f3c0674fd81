package journal

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"lukechampine.com/blake3"

	"splitpay/core/events"
	"splitpay/core/types"
)

// ErrChainBroken is returned by Verify when a stored digest does not match
// the recomputed chain.
var ErrChainBroken = errors.New("journal: digest chain broken")

const (
	defaultListLimit = 100
	verifyBatch      = 500
)

// Entry is one committed ledger event. Digest chains every entry to its
// predecessor so edits to stored rows are detectable.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"size:64;index"`
	Attributes string    `gorm:"type:text"`
	Digest     string    `gorm:"size:64;uniqueIndex"`
	CreatedAt  time.Time
}

// TableName pins the table name independent of the struct name.
func (Entry) TableName() string { return "splitpay_events" }

// Event decodes the stored attributes.
func (e *Entry) Event() (*types.Event, error) {
	attrs := map[string]string{}
	if e.Attributes != "" {
		if err := json.Unmarshal([]byte(e.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return &types.Event{Type: e.Type, Attributes: attrs}, nil
}

// Open connects to the journal database. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("journal: unsupported driver %q", driver)
	}
}

// AutoMigrate creates or updates the journal schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}

// Journal persists committed events. It implements events.Emitter so the
// runtime can hand it events directly.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time

	mu   sync.Mutex
	seq  uint64
	head [32]byte
}

// New migrates db and resumes the digest chain from the last stored entry.
func New(ctx context.Context, db *gorm.DB, log *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, fmt.Errorf("journal: nil database")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	j := &Journal{db: db, logger: log, nowFn: time.Now}
	var last Entry
	err := db.WithContext(ctx).Order("seq desc").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("journal: load head: %w", err)
	}
	if last.Seq > 0 {
		head, err := decodeDigest(last.Digest)
		if err != nil {
			return nil, err
		}
		j.seq = last.Seq
		j.head = head
	}
	return j, nil
}

func decodeDigest(raw string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != len(out) {
		return out, fmt.Errorf("journal: malformed digest %q", raw)
	}
	copy(out[:], b)
	return out, nil
}

func chain(prev [32]byte, seq uint64, eventType, attrs string) [32]byte {
	h := blake3.New(32, nil)
	h.Write(prev[:])
	fmt.Fprintf(h, "%d|%s|", seq, eventType)
	h.Write([]byte(attrs))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Emit implements events.Emitter. Failures are logged; the ledger call has
// already committed.
func (j *Journal) Emit(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	if _, err := j.Append(context.Background(), rendered); err != nil {
		j.logger.Error("journal append failed", "type", rendered.Type, "error", err)
	}
}

// Append stores evt as the next entry.
func (j *Journal) Append(ctx context.Context, evt *types.Event) (*Entry, error) {
	if evt == nil {
		return nil, fmt.Errorf("journal: nil event")
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("journal: encode attributes: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	seq := j.seq + 1
	digest := chain(j.head, seq, evt.Type, string(encoded))
	entry := &Entry{
		ID:         uuid.New(),
		Seq:        seq,
		Type:       evt.Type,
		Attributes: string(encoded),
		Digest:     hex.EncodeToString(digest[:]),
		CreatedAt:  j.nowFn().UTC(),
	}
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("journal: insert: %w", err)
	}
	j.seq = seq
	j.head = digest
	return entry, nil
}

// List returns up to limit entries with Seq greater than after, oldest
// first. An empty eventType matches every type.
func (j *Journal) List(ctx context.Context, after uint64, limit int, eventType string) ([]Entry, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	query := j.db.WithContext(ctx).Where("seq > ?", after)
	if eventType = strings.TrimSpace(eventType); eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	var out []Entry
	if err := query.Order("seq asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return out, nil
}

// Verify recomputes the digest chain over every stored entry.
func (j *Journal) Verify(ctx context.Context) error {
	var (
		prev  [32]byte
		after uint64
	)
	for {
		var rows []Entry
		err := j.db.WithContext(ctx).Where("seq > ?", after).Order("seq asc").Limit(verifyBatch).Find(&rows).Error
		if err != nil {
			return fmt.Errorf("journal: verify: %w", err)
		}
		for _, row := range rows {
			if row.Seq != after+1 {
				return fmt.Errorf("%w: expected seq %d, found %d", ErrChainBroken, after+1, row.Seq)
			}
			digest := chain(prev, row.Seq, row.Type, row.Attributes)
			if hex.EncodeToString(digest[:]) != row.Digest {
				return fmt.Errorf("%w: seq %d", ErrChainBroken, row.Seq)
			}
			prev = digest
			after = row.Seq
		}
		if len(rows) < verifyBatch {
			return nil
		}
	}
}

// Head returns the sequence number of the last stored entry.
func (j *Journal) Head() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}
