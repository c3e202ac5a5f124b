package sqlite

const (
	insertArticleQuery = `
        INSERT INTO articles (
            hash_id, title, url, source, category, language,
            summary, content, published_at, scraped_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(hash_id) DO NOTHING
    `

	findUnusedQuery = `
        SELECT id, hash_id, title, url, source, category, language,
               summary, content, published_at, scraped_at, is_used,
               COALESCE(used_in_video, '')
        FROM articles
        WHERE is_used = 0 AND scraped_at >= ?
    `

	markUsedQuery = `UPDATE articles SET is_used = 1, used_in_video = ? WHERE id = ?`

	upsertJobQuery = `
        INSERT INTO videos (
            id, title, language, status, duration, article_count,
            script_path, audio_path, video_path, thumbnail_path, notes_path,
            upload_status, youtube_id, youtube_url, error,
            created_at, updated_at, uploaded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            status = excluded.status,
            duration = excluded.duration,
            article_count = excluded.article_count,
            script_path = excluded.script_path,
            audio_path = excluded.audio_path,
            video_path = excluded.video_path,
            thumbnail_path = excluded.thumbnail_path,
            notes_path = excluded.notes_path,
            upload_status = excluded.upload_status,
            youtube_id = excluded.youtube_id,
            youtube_url = excluded.youtube_url,
            error = excluded.error,
            updated_at = excluded.updated_at,
            uploaded_at = excluded.uploaded_at
    `

	findJobQuery = `
        SELECT id, COALESCE(title, ''), COALESCE(language, ''), status, duration, article_count,
               COALESCE(script_path, ''), COALESCE(audio_path, ''), COALESCE(video_path, ''),
               COALESCE(thumbnail_path, ''), COALESCE(notes_path, ''),
               upload_status, COALESCE(youtube_id, ''), COALESCE(youtube_url, ''),
               COALESCE(error, ''), created_at, updated_at, uploaded_at
        FROM videos WHERE id = ?
    `

	setUploadStatusQuery = `
        UPDATE videos SET
            upload_status = ?,
            youtube_id = COALESCE(NULLIF(?, ''), youtube_id),
            youtube_url = COALESCE(NULLIF(?, ''), youtube_url),
            uploaded_at = COALESCE(?, uploaded_at),
            updated_at = ?
        WHERE id = ?
    `

	insertScrapeLogQuery = `
        INSERT INTO scrape_logs (
            source, articles_found, articles_new, articles_duplicate,
            status, errors, started_at, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
)
