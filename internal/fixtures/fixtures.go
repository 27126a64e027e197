// Package fixtures holds the fixed catalogue of SQL snippets the behavior
// recorder runs on every platform. The catalogue is versioned reference
// data: ids are stable across releases, and profiles recorded from one
// catalogue version are comparable across platforms.
package fixtures

import (
	"github.com/zeebo/xxh3"

	"github.com/SourceScope/source-scope-mcp/internal/sqlang"
)

// Version increments whenever a fixture is added, removed, or its source
// text changes.
const Version = 2

// Fixture is one recorded SQL snippet.
type Fixture struct {
	ID        string
	Construct sqlang.ElementType
	Source    string
	// EdgeCase marks snippets that exist to provoke known grammar quirks.
	EdgeCase bool
}

var catalogue = []Fixture{
	{
		ID:        "table_basic",
		Construct: sqlang.TypeTable,
		Source: `CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    email TEXT NOT NULL
);
`,
	},
	{
		ID:        "table_constraints",
		Construct: sqlang.TypeTable,
		Source: `CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users (id),
    total NUMERIC(10, 2) DEFAULT 0,
    placed_at TEXT NOT NULL
);
`,
	},
	{
		ID:        "table_quoted",
		Construct: sqlang.TypeTable,
		EdgeCase:  true,
		Source: `CREATE TABLE "order details" (
    order_id INTEGER NOT NULL,
    note TEXT
);
`,
	},
	{
		ID:        "view_basic",
		Construct: sqlang.TypeView,
		Source: `CREATE VIEW active_users AS
    SELECT id, email FROM users WHERE active = 1;
`,
	},
	{
		ID:        "view_join",
		Construct: sqlang.TypeView,
		Source: `CREATE VIEW order_totals AS
    SELECT o.id, u.email, o.total
    FROM orders o
    JOIN users u ON u.id = o.user_id;
`,
	},
	{
		ID:        "view_or_replace",
		Construct: sqlang.TypeView,
		EdgeCase:  true,
		Source: `CREATE OR REPLACE VIEW recent_orders AS
    SELECT id, placed_at FROM orders ORDER BY placed_at DESC;
`,
	},
	{
		ID:        "function_no_args",
		Construct: sqlang.TypeFunction,
		Source: `CREATE FUNCTION user_count() RETURNS integer
    AS 'SELECT count(*) FROM users'
    LANGUAGE SQL;
`,
	},
	{
		ID:        "function_params",
		Construct: sqlang.TypeFunction,
		Source: `CREATE FUNCTION add_totals(a integer, b integer) RETURNS integer
    AS 'SELECT a + b'
    LANGUAGE SQL;
`,
	},
	{
		ID:        "procedure_basic",
		Construct: sqlang.TypeProcedure,
		Source: `CREATE PROCEDURE sync_accounts(IN batch integer)
BEGIN
    UPDATE accounts SET synced = 1;
END;
`,
	},
	{
		ID:        "trigger_after_insert",
		Construct: sqlang.TypeTrigger,
		Source: `CREATE TRIGGER audit_insert AFTER INSERT ON accounts
FOR EACH ROW
BEGIN
    INSERT INTO audit_log (account_id) VALUES (NEW.id);
END;
`,
	},
	{
		ID:        "trigger_before_update",
		Construct: sqlang.TypeTrigger,
		Source: `CREATE TRIGGER guard_balance BEFORE UPDATE ON accounts
FOR EACH ROW
BEGIN
    SELECT RAISE(ABORT, 'balance locked') WHERE OLD.locked = 1;
END;
`,
	},
	{
		ID:        "index_basic",
		Construct: sqlang.TypeIndex,
		Source: `CREATE INDEX idx_users_email ON users (email);
`,
	},
	{
		ID:        "index_unique",
		Construct: sqlang.TypeIndex,
		Source: `CREATE UNIQUE INDEX idx_accounts_number ON accounts (number);
`,
	},
	{
		// Grammar revisions on some platforms hallucinate a trigger node
		// out of the comment text here.
		ID:        "comment_trigger_mention",
		Construct: sqlang.TypeTrigger,
		EdgeCase:  true,
		Source: `-- Legacy audit trigger definition lived here before migration 012.
-- Dropped in favor of application-level logging.
SELECT 1;
`,
	},
	{
		ID:        "statement_mix",
		Construct: sqlang.TypeTable,
		EdgeCase:  true,
		Source: `CREATE TABLE events (
    id INTEGER PRIMARY KEY,
    kind TEXT NOT NULL
);

CREATE VIEW recent_events AS
    SELECT id, kind FROM events ORDER BY id DESC;

CREATE INDEX idx_events_kind ON events (kind);
`,
	},
}

// All returns the catalogue in recording order.
func All() []Fixture {
	out := make([]Fixture, len(catalogue))
	copy(out, catalogue)
	return out
}

// ByID returns the fixture with the given id.
func ByID(id string) (Fixture, bool) {
	for _, f := range catalogue {
		if f.ID == id {
			return f, true
		}
	}
	return Fixture{}, false
}

// Checksum is a stable hash over fixture ids and sources. Recorder logs
// carry it so profiles recorded from differing catalogue contents are
// distinguishable even at the same Version.
func Checksum() uint64 {
	h := xxh3.New()
	for _, f := range catalogue {
		h.WriteString(f.ID)
		h.Write([]byte{0})
		h.WriteString(f.Source)
		h.Write([]byte{0})
	}
	return h.Sum64()
}
