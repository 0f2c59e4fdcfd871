package store

// schemaVersion is stamped into PRAGMA user_version on first open.
// Caches written by a different version are refused.
const schemaVersion = 1

// Referential integrity between these tables is enforced by the store
// inside write transactions. The FOREIGN KEY clauses document intent
// and stay unenforced so that cascades remain explicit and auditable.
const schema = `
-- The 'semesters' table mirrors the portal's term list.
CREATE TABLE IF NOT EXISTS semesters (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    ord INTEGER NOT NULL DEFAULT 0
);

-- The 'folders' table holds every folder tree. The root of a tree is
-- the one folder with neither name nor parent.
CREATE TABLE IF NOT EXISTS folders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    parent INTEGER,
    FOREIGN KEY(parent) REFERENCES folders(id),
    CHECK ((name IS NULL) = (parent IS NULL))
);

-- The 'courses' table anchors each course to its semester and to the
-- root folder of its tree. sync: 0 disabled, 1 manual, 2 automatic, 3 full.
CREATE TABLE IF NOT EXISTS courses (
    id TEXT PRIMARY KEY,
    semester TEXT NOT NULL,
    number TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    abbrev TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    type_abbrev TEXT NOT NULL DEFAULT '',
    sync INTEGER NOT NULL CHECK (sync BETWEEN 0 AND 3),
    root INTEGER NOT NULL,
    FOREIGN KEY(semester) REFERENCES semesters(id),
    FOREIGN KEY(root) REFERENCES folders(id)
);

-- The 'files' table stores file metadata. local_date stays NULL until
-- the content has been downloaded; version counts observed remote edits.
CREATE TABLE IF NOT EXISTS files (
    id TEXT PRIMARY KEY,
    folder INTEGER NOT NULL,
    name TEXT NOT NULL,
    extension TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    remote_date DATETIME NOT NULL,
    copyrighted INTEGER NOT NULL DEFAULT 0,
    local_date DATETIME,
    version INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY(folder) REFERENCES folders(id)
);

-- The 'views' table stores materialization layouts.
-- escape: 0 similar, 1 typeable, 2 camelcase, 3 snakecase.
-- charset: 0 unicode, 1 ascii, 2 identifier.
CREATE TABLE IF NOT EXISTS views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    format TEXT NOT NULL,
    base TEXT NOT NULL CHECK (base NOT IN ('', '.', '..')),
    escape INTEGER NOT NULL CHECK (escape BETWEEN 0 AND 3),
    charset INTEGER NOT NULL CHECK (charset BETWEEN 0 AND 2)
);

-- The 'checkouts' table records which files a view has materialized.
CREATE TABLE IF NOT EXISTS checkouts (
    view INTEGER NOT NULL,
    file TEXT NOT NULL,
    PRIMARY KEY (view, file),
    FOREIGN KEY(view) REFERENCES views(id),
    FOREIGN KEY(file) REFERENCES files(id)
);
`
