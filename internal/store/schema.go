package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS local_flags (
    name                 TEXT PRIMARY KEY,
    value                INTEGER NOT NULL DEFAULT 0,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_session (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    uid                  TEXT NOT NULL,
    email                TEXT,
    id_token             TEXT,
    refresh_token        TEXT,
    signed_in_at         TEXT NOT NULL
);
`
