package storage

import (
	"database/sql"
	"fmt"

	"ewintr.nl/ytsum/model"
	_ "github.com/lib/pq"
)

var pgMigrations = []string{
	`CREATE TYPE video_status AS ENUM ('new', 'transcript_fetching', 'transcript_ready', 'transcript_unavailable', 'summary_generating', 'summary_ready', 'summary_failed')`,
	`CREATE TABLE video (
id VARCHAR(11) PRIMARY KEY,
url VARCHAR(255) NOT NULL,
status video_status NOT NULL,
title VARCHAR(255) NOT NULL DEFAULT '',
thumbnail_url VARCHAR(255) NOT NULL DEFAULT '',
transcript TEXT NOT NULL DEFAULT '',
transcript_language VARCHAR(35) NOT NULL DEFAULT '',
summary TEXT NOT NULL DEFAULT '',
summary_language VARCHAR(35) NOT NULL DEFAULT '',
summary_truncated BOOLEAN NOT NULL DEFAULT FALSE,
created_at TIMESTAMPTZ NOT NULL,
updated_at TIMESTAMPTZ NOT NULL
)`,
}

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(info PostgresInfo) (*Postgres, error) {
	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		info.Host, info.Port, info.User, info.Password, info.Database))
	if err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}
	if err := migrate(db, pgDialect, pgMigrations); err != nil {
		return nil, fmt.Errorf("could not migrate postgres database: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(video *model.Video) error {
	_, err := p.db.Exec(`INSERT INTO video
(id, url, status, title, thumbnail_url, transcript, transcript_language, summary, summary_language, summary_truncated, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
status = EXCLUDED.status,
title = EXCLUDED.title,
thumbnail_url = EXCLUDED.thumbnail_url,
transcript = EXCLUDED.transcript,
transcript_language = EXCLUDED.transcript_language,
summary = EXCLUDED.summary,
summary_language = EXCLUDED.summary_language,
summary_truncated = EXCLUDED.summary_truncated,
updated_at = EXCLUDED.updated_at`,
		string(video.ID), video.URL, string(video.Status), video.Title, video.ThumbnailURL,
		video.Transcript, video.TranscriptLanguage, video.Summary, video.SummaryLanguage,
		video.SummaryTruncated, video.CreatedAt, video.UpdatedAt)

	return err
}

func (p *Postgres) Delete(id model.VideoID) error {
	_, err := p.db.Exec(`DELETE FROM video WHERE id = $1`, string(id))

	return err
}

func (p *Postgres) FindAll() ([]*model.Video, error) {
	rows, err := p.db.Query(`SELECT id, url, status, title, thumbnail_url, transcript, transcript_language, summary, summary_language, summary_truncated, created_at, updated_at
FROM video`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []*model.Video{}
	for rows.Next() {
		video := &model.Video{}
		if err := rows.Scan(&video.ID, &video.URL, &video.Status, &video.Title, &video.ThumbnailURL,
			&video.Transcript, &video.TranscriptLanguage, &video.Summary, &video.SummaryLanguage,
			&video.SummaryTruncated, &video.CreatedAt, &video.UpdatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}
