package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"worldinv/internal/inventory"
)

// SQLiteIndex stores inventory records and world totals in a SQLite file.
// Writes are queued to a single writer goroutine that batches them into
// transactions; unlike a best-effort index nothing is dropped, a full
// queue blocks the caller.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	errMu sync.Mutex
	err   error
}

type reqKind int

const (
	reqRecord reqKind = iota + 1
	reqTotals
)

type req struct {
	kind    reqKind
	record  inventory.Record
	buckets []inventory.Bucket
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// A previous run's rows would mix with this run's.
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1'),('started_at',?)`,
		time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newIndex(db), nil
}

// newIndex starts the writer loop over an initialized database.
func newIndex(db *sql.DB) *SQLiteIndex {
	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inventories (
			id INTEGER PRIMARY KEY,
			dimension TEXT NOT NULL,
			kind TEXT NOT NULL,
			owner TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inventories_owner ON inventories(owner);`,
		`CREATE TABLE IF NOT EXISTS stacks (
			inventory_id INTEGER NOT NULL REFERENCES inventories(id),
			seq INTEGER NOT NULL,
			item TEXT NOT NULL,
			lore TEXT NOT NULL,
			damage INTEGER NOT NULL,
			count INTEGER NOT NULL,
			slot INTEGER,
			PRIMARY KEY (inventory_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stacks_item ON stacks(item);`,
		`CREATE TABLE IF NOT EXISTS totals (
			seq INTEGER PRIMARY KEY,
			item TEXT NOT NULL,
			lore TEXT,
			damage INTEGER,
			count INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *SQLiteIndex) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		if cerr := s.db.Close(); cerr != nil {
			s.setErr(cerr)
		}
		err = s.Err()
	})
	return err
}

func (s *SQLiteIndex) WriteRecord(r inventory.Record) error {
	if s.closed.Load() {
		return fmt.Errorf("index closed")
	}
	if err := s.Err(); err != nil {
		return err
	}
	s.ch <- req{kind: reqRecord, record: r}
	return nil
}

func (s *SQLiteIndex) WriteTotals(buckets []inventory.Bucket) error {
	if s.closed.Load() {
		return fmt.Errorf("index closed")
	}
	if err := s.Err(); err != nil {
		return err
	}
	s.ch <- req{kind: reqTotals, buckets: buckets}
	return nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	prepare := func(query string) *sql.Stmt {
		st, err := s.db.Prepare(query)
		if err != nil {
			s.setErr(fmt.Errorf("prepare index statement: %w", err))
			return nil
		}
		return st
	}
	insertInv := prepare(`INSERT INTO inventories(id,dimension,kind,owner,x,y,z) VALUES(?,?,?,?,?,?,?)`)
	insertStack := prepare(`INSERT INTO stacks(inventory_id,seq,item,lore,damage,count,slot) VALUES(?,?,?,?,?,?,?)`)
	insertTotal := prepare(`INSERT OR REPLACE INTO totals(seq,item,lore,damage,count) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertInv, insertStack, insertTotal} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()
	if insertInv == nil || insertStack == nil || insertTotal == nil {
		for range s.ch {
		}
		return
	}

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 5000
		commitMaxWait = 2 * time.Second

		nextInv int64
	)

	begin := func() bool {
		if tx != nil {
			return true
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.setErr(err)
			return false
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
		return true
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.setErr(err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	fail := func(err error) {
		s.setErr(err)
		if tx != nil {
			_ = tx.Rollback()
			tx = nil
		}
	}

	for r := range s.ch {
		if s.Err() != nil || !begin() {
			continue
		}
		switch r.kind {
		case reqRecord:
			nextInv++
			rec := r.record
			if _, err := tx.Stmt(insertInv).Exec(nextInv, rec.Dimension, string(rec.Kind), rec.Owner, rec.Pos[0], rec.Pos[1], rec.Pos[2]); err != nil {
				fail(err)
				continue
			}
			opCount++
			for i, st := range rec.Stacks {
				var slot any
				if st.HasSlot() {
					slot = st.Slot
				}
				if _, err := tx.Stmt(insertStack).Exec(nextInv, i, st.Name, st.Lore, st.Damage, st.Count, slot); err != nil {
					fail(err)
					break
				}
				opCount++
			}

		case reqTotals:
			for i, b := range r.buckets {
				var lore, dmg any
				if b.HasLore {
					lore = b.Lore
				}
				if b.HasDamage {
					dmg = b.Damage
				}
				if _, err := tx.Stmt(insertTotal).Exec(i, b.Name, lore, dmg, b.Count); err != nil {
					fail(err)
					break
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
