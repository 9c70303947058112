package storage

import (
	"database/sql"
	"fmt"
	"time"

	"ewintr.nl/ytsum/model"
	_ "modernc.org/sqlite"
)

var sqliteMigrations = []string{
	`CREATE TABLE video (
id TEXT PRIMARY KEY,
url TEXT NOT NULL,
status TEXT NOT NULL,
title TEXT NOT NULL DEFAULT '',
thumbnail_url TEXT NOT NULL DEFAULT '',
transcript TEXT NOT NULL DEFAULT '',
transcript_language TEXT NOT NULL DEFAULT '',
summary TEXT NOT NULL DEFAULT '',
summary_language TEXT NOT NULL DEFAULT '',
summary_truncated INTEGER NOT NULL DEFAULT 0,
created_at TEXT NOT NULL,
updated_at TEXT NOT NULL
)`,
}

// SQLite is the default repository, a single local database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself, but a single
	// connection avoids SQLITE_BUSY on concurrent mutations
	db.SetMaxOpenConns(1)

	if err := migrate(db, sqliteDialect, sqliteMigrations); err != nil {
		return nil, fmt.Errorf("could not migrate sqlite database: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(video *model.Video) error {
	_, err := s.db.Exec(`INSERT INTO video
(id, url, status, title, thumbnail_url, transcript, transcript_language, summary, summary_language, summary_truncated, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
status = excluded.status,
title = excluded.title,
thumbnail_url = excluded.thumbnail_url,
transcript = excluded.transcript,
transcript_language = excluded.transcript_language,
summary = excluded.summary,
summary_language = excluded.summary_language,
summary_truncated = excluded.summary_truncated,
updated_at = excluded.updated_at`,
		string(video.ID), video.URL, string(video.Status), video.Title, video.ThumbnailURL,
		video.Transcript, video.TranscriptLanguage, video.Summary, video.SummaryLanguage,
		video.SummaryTruncated,
		video.CreatedAt.UTC().Format(time.RFC3339Nano),
		video.UpdatedAt.UTC().Format(time.RFC3339Nano))

	return err
}

func (s *SQLite) Delete(id model.VideoID) error {
	_, err := s.db.Exec(`DELETE FROM video WHERE id = ?`, string(id))

	return err
}

func (s *SQLite) FindAll() ([]*model.Video, error) {
	rows, err := s.db.Query(`SELECT id, url, status, title, thumbnail_url, transcript, transcript_language, summary, summary_language, summary_truncated, created_at, updated_at
FROM video`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []*model.Video{}
	for rows.Next() {
		video := &model.Video{}
		var createdAt, updatedAt string
		if err := rows.Scan(&video.ID, &video.URL, &video.Status, &video.Title, &video.ThumbnailURL,
			&video.Transcript, &video.TranscriptLanguage, &video.Summary, &video.SummaryLanguage,
			&video.SummaryTruncated, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if video.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at for video %s: %w", video.ID, err)
		}
		if video.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("invalid updated_at for video %s: %w", video.ID, err)
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}
