package state

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invocations (
    id           TEXT PRIMARY KEY,
    base         TEXT NOT NULL,
    command      TEXT NOT NULL,
    check_only   INTEGER NOT NULL,
    exit_code    INTEGER NOT NULL,
    coverage     REAL,
    tips         INTEGER NOT NULL DEFAULT 0,
    started_at   INTEGER NOT NULL,
    duration_ms  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS invocations_started_at ON invocations (started_at);
`

// MySQL has no CREATE INDEX IF NOT EXISTS, so the index lives in the table definition.
const mysqlSchema = `
CREATE TABLE IF NOT EXISTS invocations (
    id           VARCHAR(36) PRIMARY KEY,
    base         VARCHAR(512) NOT NULL,
    command      TEXT NOT NULL,
    check_only   TINYINT(1) NOT NULL,
    exit_code    INT NOT NULL,
    coverage     DOUBLE,
    tips         INT NOT NULL DEFAULT 0,
    started_at   BIGINT NOT NULL,
    duration_ms  BIGINT NOT NULL,
    INDEX invocations_started_at (started_at)
)
`
