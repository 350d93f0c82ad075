package pipeline

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// Probability is the class distribution of a prediction.
type Probability struct {
	NoDiabetes float64 `json:"no_diabetes"`
	Diabetes   float64 `json:"diabetes"`
}

// PredictionResult is the success response of the pipeline.
type PredictionResult struct {
	Status         Status      `json:"status"`
	Prediction     int         `json:"prediction"`
	PredictionText string      `json:"prediction_text"`
	Probability    Probability `json:"probability"`
	Confidence     float64     `json:"confidence"`
	Timestamp      time.Time   `json:"timestamp"`
}

var (
	// SupportedLanguages lists the languages prediction text is available
	// in; the first is the fallback.
	SupportedLanguages = []language.Tag{language.English, language.Thai}

	languageMatcher = language.NewMatcher(SupportedLanguages)

	predictionTexts = map[language.Tag][2]string{
		language.English: {"Not at risk of diabetes", "At risk of diabetes"},
		language.Thai:    {"ไม่มีความเสี่ยงเป็นโรคเบาหวาน", "มีความเสี่ยงเป็นโรคเบาหวาน"},
	}
)

// FormatResult turns raw predictor output into a PredictionResult. It
// assumes label is 0 or 1 and probs holds two entries.
func FormatResult(label int, probs []float64, now time.Time, lang language.Tag) *PredictionResult {
	texts, ok := predictionTexts[lang]
	if !ok {
		texts = predictionTexts[language.English]
	}
	confidence := probs[0]
	if probs[1] > confidence {
		confidence = probs[1]
	}
	return &PredictionResult{
		Status:         StatusSuccess,
		Prediction:     label,
		PredictionText: texts[label],
		Probability:    Probability{NoDiabetes: probs[0], Diabetes: probs[1]},
		Confidence:     confidence,
		Timestamp:      now.UTC(),
	}
}

// MatchLanguage picks the supported language closest to an Accept-Language
// header value.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return SupportedLanguages[0]
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return SupportedLanguages[idx]
}

type langKey struct{}

// WithLanguage attaches the language prediction text is rendered in.
func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func languageFrom(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(langKey{}).(language.Tag); ok {
		return lang
	}
	return SupportedLanguages[0]
}
