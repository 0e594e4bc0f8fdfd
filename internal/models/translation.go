package models

// Translation is one cached text translation keyed by the source text and
// language pair. Entries never expire; writes are idempotent upserts.
type Translation struct {
	SourceText     string `db:"source_text" json:"source_text"`
	SourceLang     string `db:"source_lang" json:"source_lang"`
	TargetLang     string `db:"target_lang" json:"target_lang"`
	TranslatedText string `db:"translated_text" json:"translated_text"`
}
