package domain

// ValidateRecord checks a parsed record before it enters the enricher.
// It enforces identity, intra-record id uniqueness, referential integrity of
// the theme↔quote relation, and the 0-or-EmbeddingDim embedding invariant.
func ValidateRecord(rec *InterviewRecord) error {
	if rec.InterviewID == "" {
		return NewValidationError("interviewId", "", ErrMissingInterviewID)
	}

	themeIDs := make(map[string]bool, len(rec.Analysis.Themes))
	for _, th := range rec.Analysis.Themes {
		if th.ID == "" {
			return NewValidationError("theme.id", th.Title, ErrMissingID)
		}
		if themeIDs[th.ID] {
			return NewValidationError("theme.id", th.ID, ErrDuplicateThemeID)
		}
		themeIDs[th.ID] = true
	}

	quoteIDs := make(map[string]bool, len(rec.Analysis.Quotes))
	for _, q := range rec.Analysis.Quotes {
		if q.ID == "" {
			return NewValidationError("quote.id", q.QuoteText, ErrMissingID)
		}
		if quoteIDs[q.ID] {
			return NewValidationError("quote.id", q.ID, ErrDuplicateQuoteID)
		}
		quoteIDs[q.ID] = true
	}

	for _, th := range rec.Analysis.Themes {
		for _, qid := range th.RelatedQuoteIDs {
			if !quoteIDs[qid] {
				return NewValidationError("theme.relatedQuoteIds", qid, ErrUnknownQuoteRef)
			}
		}
	}
	for _, q := range rec.Analysis.Quotes {
		for _, tid := range q.RelatedThemeIDs {
			if !themeIDs[tid] {
				return NewValidationError("quote.relatedThemeIds", tid, ErrUnknownThemeRef)
			}
		}
	}

	return validateEmbeddings(rec)
}

// validateEmbeddings enforces that every embedding is empty or EmbeddingDim long.
func validateEmbeddings(rec *InterviewRecord) error {
	check := func(field string, emb []float32) error {
		if len(emb) != 0 && len(emb) != EmbeddingDim {
			return NewValidationError(field, "", ErrBadEmbeddingDim)
		}
		return nil
	}
	for _, s := range rec.Analysis.Summaries {
		if err := check("summary.embedding", s.Embedding); err != nil {
			return err
		}
	}
	for _, th := range rec.Analysis.Themes {
		if err := check("theme.embedding", th.Embedding); err != nil {
			return err
		}
	}
	for _, q := range rec.Analysis.Quotes {
		if err := check("quote.embedding", q.Embedding); err != nil {
			return err
		}
	}
	for _, tp := range rec.Analysis.Timeline {
		if err := check("timeline.embedding", tp.Embedding); err != nil {
			return err
		}
	}
	for _, ia := range rec.Analysis.ImprovementAreas {
		if err := check("improvementArea.embedding", ia.Embedding); err != nil {
			return err
		}
	}
	return nil
}
