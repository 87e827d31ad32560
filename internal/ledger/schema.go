package ledger

// createLedgerSQL is the DDL for the schema_version ledger table.
const createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_version (
    version            TEXT PRIMARY KEY,
    description        TEXT NOT NULL,
    script_name        TEXT NOT NULL,
    checksum           TEXT NOT NULL,
    executed_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    execution_time_ms  BIGINT NOT NULL,
    success            BOOLEAN NOT NULL DEFAULT TRUE
)`
