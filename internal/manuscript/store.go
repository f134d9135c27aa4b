package manuscript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"editorial/internal/logging"
	"editorial/internal/persistence"
)

// Store owns the six workflow partitions. It keeps one canonical map of
// records and derives the partition index from each record's status, so a
// record is always in exactly one partition.
//
// Mutations are serialized by writeMu. records, index, version and seq are
// modified only while holding both writeMu and mu; readers take mu.RLock.
type Store struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	records map[string]*entry
	index   map[Status]map[string]struct{}
	version uint64
	seq     uint64

	subsMu      sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
	flushCh chan struct{}

	adapter   persistence.Adapter
	async     bool
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	reviewers ReviewerResolver
	recorder  Recorder
}

type entry struct {
	rec Record
	seq uint64
}

// New returns an empty store. Use Load or Open to restore persisted partitions.
func New(opts ...Option) *Store {
	s := &Store{
		records:     make(map[string]*entry),
		index:       make(map[Status]map[string]struct{}, len(allStatuses)),
		subscribers: make(map[int]func(Event)),
		dirty:       make(map[string]struct{}),
		flushCh:     make(chan struct{}, 1),
		now:         time.Now,
		newID:       uuid.NewString,
		recorder:    noopRecorder{},
	}
	for _, status := range allStatuses {
		s.index[status] = make(map[string]struct{})
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "record-store")
	return s
}

// Open builds a store and restores every partition from the configured adapter.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory partitions with the adapter contents. Each
// record takes the status of the partition key it was stored under.
func (s *Store) Load(ctx context.Context) error {
	if s.adapter == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records := make(map[string]*entry)
	index := make(map[Status]map[string]struct{}, len(allStatuses))
	var seq uint64
	for _, status := range allStatuses {
		index[status] = make(map[string]struct{})
		key := persistence.PartitionKey(string(status))
		payload, found, err := s.adapter.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if !found || len(payload) == 0 {
			continue
		}
		var stored []Record
		if err := json.Unmarshal(payload, &stored); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		for _, rec := range stored {
			if rec.ID == "" {
				s.logger.Warn("skipping stored manuscript without id", logging.String(logging.FieldStatus, string(status)))
				continue
			}
			if prev, dup := records[rec.ID]; dup {
				return fmt.Errorf("load %s: manuscript %q also stored in %s", key, rec.ID, prev.rec.Status)
			}
			if rec.Status != status {
				logging.WarnWithContext(s.logger, "stored manuscript status disagrees with partition", "partition_mismatch",
					logging.String(logging.FieldManuscriptID, rec.ID),
					logging.String("stored_status", string(rec.Status)),
					logging.String(logging.FieldStatus, string(status)),
					logging.String(logging.FieldImpact, "partition key wins"),
				)
				rec.Status = status
			}
			seq++
			records[rec.ID] = &entry{rec: rec, seq: seq}
			index[status][rec.ID] = struct{}{}
		}
	}

	s.mu.Lock()
	s.records = records
	s.index = index
	s.seq = seq
	s.version++
	s.mu.Unlock()

	for _, status := range allStatuses {
		s.recorder.SetPartitionSize(string(status), len(index[status]))
	}
	s.logger.Info("manuscripts loaded",
		logging.Int("count", len(records)),
		logging.String("backend", s.adapter.Name()),
	)
	return nil
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return Record{}, &RecordNotFoundError{ID: id}
	}
	return e.rec.Clone(), nil
}

// List returns the records of one partition in the order they entered it.
func (s *Store) List(status Status) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(status)
}

func (s *Store) listLocked(status Status) []Record {
	ids := s.index[status]
	entries := make([]*entry, 0, len(ids))
	for id := range ids {
		entries = append(entries, s.records[id])
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec.Clone()
	}
	return out
}

// Snapshot returns a consistent copy of all partitions.
func (s *Store) Snapshot() Partitions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Partitions{
		Version: s.version,
		Records: make(map[Status][]Record, len(allStatuses)),
	}
	for _, status := range allStatuses {
		out.Records[status] = s.listLocked(status)
	}
	return out
}

// Counts returns the size of every partition.
func (s *Store) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		out[status] = len(s.index[status])
	}
	return out
}

// Version increases with every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnMutationCommitted registers fn to run after every committed mutation.
// Subscribers run on the goroutine that made the change while mutations are
// still serialized, so events arrive in Version order. fn may read the store
// but must not mutate it. The returned function removes the subscription.
func (s *Store) OnMutationCommitted(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subscribers, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) publish(evt Event) {
	s.subsMu.RLock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subscribers[id])
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}

// change is one validated mutation waiting to be committed.
type change struct {
	op   string
	kind EventKind
	id   string
	from Status
	to   Status
	// next is the record after the mutation; nil removes the record.
	next *Record
	prev *Record
}

// commit persists and applies c. The caller holds writeMu.
func (s *Store) commit(ctx context.Context, c change) (Event, error) {
	keys := c.affectedStatuses()
	if s.adapter != nil && !s.async {
		entries, err := s.encodeAfter(keys, c)
		if err != nil {
			return Event{}, err
		}
		if err := s.adapter.SaveBatch(ensureContext(ctx), entries); err != nil {
			s.recorder.IncPersistenceFailure(c.op)
			return Event{}, &PersistenceError{Op: c.op, Keys: entryKeys(entries), Err: err}
		}
	}

	s.mu.Lock()
	s.applyLocked(c)
	s.version++
	version := s.version
	sizes := make(map[Status]int, len(keys))
	for _, status := range keys {
		sizes[status] = len(s.index[status])
	}
	s.mu.Unlock()

	for status, size := range sizes {
		s.recorder.SetPartitionSize(string(status), size)
	}
	if s.adapter != nil && s.async {
		s.markDirty(keys)
	}

	evt := Event{Kind: c.kind, ID: c.id, From: c.from, To: c.to, Version: version}
	switch {
	case c.next != nil:
		evt.Record = c.next.Clone()
	case c.prev != nil:
		evt.Record = c.prev.Clone()
	}
	return evt, nil
}

func (s *Store) applyLocked(c change) {
	if c.from != "" {
		delete(s.index[c.from], c.id)
	}
	if c.next == nil {
		delete(s.records, c.id)
		return
	}
	e, ok := s.records[c.id]
	if !ok || c.from != c.to {
		s.seq++
		e = &entry{seq: s.seq}
		s.records[c.id] = e
	}
	e.rec = c.next.Clone()
	s.index[c.to][c.id] = struct{}{}
}

func (c change) affectedStatuses() []Status {
	var out []Status
	if c.from != "" {
		out = append(out, c.from)
	}
	if c.to != "" && c.to != c.from {
		out = append(out, c.to)
	}
	return out
}

// encodeAfter renders the given partitions as they will look once c is applied.
func (s *Store) encodeAfter(statuses []Status, c change) ([]persistence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]persistence.Entry, 0, len(statuses))
	for _, status := range statuses {
		current := s.listLocked(status)
		next := make([]Record, 0, len(current)+1)
		replaced := false
		for _, rec := range current {
			if rec.ID != c.id {
				next = append(next, rec)
				continue
			}
			if c.next != nil && c.to == status {
				next = append(next, *c.next)
				replaced = true
			}
		}
		if c.next != nil && c.to == status && !replaced {
			next = append(next, *c.next)
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", status, err)
		}
		entries = append(entries, persistence.Entry{Key: persistence.PartitionKey(string(status)), Payload: payload})
	}
	return entries, nil
}

func entryKeys(entries []persistence.Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// run validates and commits one mutation under the write lock, then notifies
// subscribers. A build that returns a change without a kind is a no-op.
func (s *Store) run(ctx context.Context, op string, build func() (change, error)) (Record, error) {
	start := time.Now()
	evt, err := s.runLocked(ctx, build)
	s.recorder.ObserveMutation(op, outcomeOf(err), time.Since(start))
	if err != nil {
		s.logMutationFailure(op, err)
		return Record{}, err
	}
	return evt.Record, nil
}

func (s *Store) runLocked(ctx context.Context, build func() (change, error)) (Event, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	c, err := build()
	if err != nil {
		return Event{}, err
	}
	if c.kind == "" {
		return Event{}, nil
	}
	evt, err := s.commit(ctx, c)
	if err != nil {
		return Event{}, err
	}
	s.publish(evt)
	return evt, nil
}

func (s *Store) logMutationFailure(op string, err error) {
	kind := KindOf(err)
	attrs := []logging.Attr{
		logging.String("op", op),
		logging.String("kind", kind),
		logging.Error(err),
	}
	if kind == KindPersistence || kind == KindInternal {
		logging.ErrorWithContext(s.logger, "manuscript mutation failed", "mutation_failed", attrs...)
		return
	}
	s.logger.Debug("manuscript mutation rejected", logging.Args(attrs...)...)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err)
}

// lookupLocked returns the stored record for id. The caller holds writeMu.
func (s *Store) lookupLocked(id string) (*entry, bool) {
	e, ok := s.records[id]
	return e, ok
}

func (s *Store) today() string {
	return FormatDate(s.now())
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
