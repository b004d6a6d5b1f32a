package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    email TEXT UNIQUE NOT NULL,
    name TEXT DEFAULT '',
    profile_picture TEXT DEFAULT '',
    telegram_chat_id INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS roadmaps (
    id TEXT PRIMARY KEY,
    title TEXT UNIQUE NOT NULL,
    description TEXT DEFAULT '',
    category TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS topics (
    id TEXT PRIMARY KEY,
    title TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL,
    tags TEXT DEFAULT '[]',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS resources (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    link TEXT NOT NULL,
    topic_id TEXT NOT NULL REFERENCES topics(id),
    type TEXT NOT NULL DEFAULT 'article',
    language TEXT NOT NULL DEFAULT 'en',
    difficulty TEXT NOT NULL DEFAULT 'beginner'
);

CREATE TABLE IF NOT EXISTS steps (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    roadmap_id TEXT NOT NULL REFERENCES roadmaps(id),
    step_order INTEGER NOT NULL CHECK (step_order >= 1),
    topic_id TEXT NOT NULL REFERENCES topics(id),
    UNIQUE (roadmap_id, step_order)
);

CREATE TABLE IF NOT EXISTS progress (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    roadmap_id TEXT NOT NULL REFERENCES roadmaps(id),
    current_step_id TEXT REFERENCES steps(id),
    started_at DATETIME NOT NULL,
    last_active DATETIME,
    UNIQUE (user_id, roadmap_id)
);

CREATE TABLE IF NOT EXISTS completed_steps (
    progress_id TEXT NOT NULL REFERENCES progress(id),
    step_id TEXT NOT NULL REFERENCES steps(id),
    completed_at DATETIME NOT NULL,
    completion_percentage INTEGER NOT NULL DEFAULT 0
        CHECK (completion_percentage BETWEEN 0 AND 100),
    UNIQUE (progress_id, step_id)
);

CREATE TABLE IF NOT EXISTS completed_topics (
    progress_id TEXT NOT NULL REFERENCES progress(id),
    topic_id TEXT NOT NULL REFERENCES topics(id),
    completed_at DATETIME NOT NULL,
    PRIMARY KEY (progress_id, topic_id)
);

CREATE TABLE IF NOT EXISTS completed_topic_resources (
    progress_id TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    resource_id TEXT NOT NULL REFERENCES resources(id),
    PRIMARY KEY (progress_id, topic_id, resource_id),
    FOREIGN KEY (progress_id, topic_id) REFERENCES completed_topics(progress_id, topic_id)
);

CREATE TABLE IF NOT EXISTS chats (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT 'New Chat',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
    chat_id TEXT NOT NULL REFERENCES chats(id),
    seq INTEGER NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    PRIMARY KEY (chat_id, seq)
);

CREATE TABLE IF NOT EXISTS user_progress_links (
    user_id TEXT NOT NULL REFERENCES users(id),
    progress_id TEXT NOT NULL REFERENCES progress(id),
    PRIMARY KEY (user_id, progress_id)
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
