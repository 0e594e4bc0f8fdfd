package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

// TranslationRepository is the durable tier of the translation cache. Rows
// are keyed by (source_text, source_lang, target_lang) and never expire.
type TranslationRepository struct {
	db *sqlx.DB
}

// NewTranslationRepository constructs a TranslationRepository.
func NewTranslationRepository(db *sqlx.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

// Get returns the cached translation for the text, or ErrCacheMiss when the
// pair has never been translated.
func (r *TranslationRepository) Get(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error) {
	const query = `SELECT translated_text FROM translations
WHERE source_text = $1 AND source_lang = $2 AND target_lang = $3`
	var translated string
	err := r.db.GetContext(ctx, &translated, query, sourceText, sourceLang, targetLang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("get translation: %w", err)
	}
	return translated, nil
}

// Upsert stores a translation, replacing any previous value for the key.
func (r *TranslationRepository) Upsert(ctx context.Context, sourceText, sourceLang, targetLang, translatedText string) error {
	const query = `INSERT INTO translations (source_text, source_lang, target_lang, translated_text)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source_text, source_lang, target_lang) DO UPDATE SET translated_text = EXCLUDED.translated_text`
	if _, err := r.db.ExecContext(ctx, query, sourceText, sourceLang, targetLang, translatedText); err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}
	return nil
}
