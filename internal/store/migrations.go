package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS columns (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	slug       TEXT NOT NULL,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0,
	UNIQUE(project_id, slug)
);

CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	number           INTEGER NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	column_id        TEXT NOT NULL,
	priority         TEXT NOT NULL DEFAULT 'medium',
	author           TEXT NOT NULL DEFAULT '',
	integration_type TEXT NOT NULL DEFAULT '',
	repository       TEXT NOT NULL DEFAULT '',
	issue_number     INTEGER NOT NULL DEFAULT 0,
	external_url     TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	UNIQUE(project_id, number)
);

CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_column_id ON tasks(column_id);
CREATE INDEX IF NOT EXISTS idx_tasks_external
	ON tasks(project_id, integration_type, repository, issue_number);

CREATE TABLE IF NOT EXISTS task_labels (
	id      TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	name    TEXT NOT NULL,
	color   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_task_labels_task_id ON task_labels(task_id);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_task_id ON notifications(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS integrations (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	type          TEXT NOT NULL CHECK(type IN ('github', 'gitea')),
	repository    TEXT NOT NULL,
	base_url      TEXT NOT NULL DEFAULT '',
	import_issues INTEGER NOT NULL DEFAULT 0 CHECK(import_issues IN (0, 1)),
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(type, repository)
);

CREATE TABLE IF NOT EXISTS workflow_rules (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL,
	integration_type TEXT NOT NULL,
	event_type       TEXT NOT NULL,
	column_id        TEXT NOT NULL,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_workflow_rules_key
	ON workflow_rules(project_id, integration_type, event_type);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS task_links (
	id           TEXT PRIMARY KEY,
	from_task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	to_task_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	type         TEXT NOT NULL CHECK(type IN (
		'blocks', 'blocked_by', 'relates_to', 'duplicates', 'parent', 'child'
	)),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_by   TEXT NOT NULL DEFAULT '',
	CHECK(from_task_id <> to_task_id)
);

CREATE INDEX IF NOT EXISTS idx_task_links_from ON task_links(from_task_id);
CREATE INDEX IF NOT EXISTS idx_task_links_to ON task_links(to_task_id);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
	{
		version: 4,
		sql: `
DROP INDEX IF EXISTS idx_tasks_external;

CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_external_issue
	ON tasks(project_id, integration_type, repository, issue_number)
	WHERE issue_number > 0;

INSERT INTO schema_version (version) VALUES (4);
`,
	},
}
