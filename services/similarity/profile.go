package similarity

const (
	StyleQuestioning     = "questioning"
	StyleExclamatory     = "exclamatory"
	StyleRichVocabulary  = "rich_vocabulary"
	StyleRepetitive      = "repetitive"
	StyleLongSentences   = "long_sentences"
	StyleShortSentences  = "short_sentences"
	readabilityPerLength = 0.5
)

type Profile struct {
	Readability float64  `json:"readability"`
	Styles      []string `json:"styles"`
}

// ProfileOf reads a readability score out of 100 and style labels from a
// feature vector.
func ProfileOf(f FeatureVector) Profile {
	profile := Profile{
		Readability: min(100, max(0, 100-f.AvgSentenceLength*readabilityPerLength)),
	}

	if f.QuestionRatio > 0.2 {
		profile.Styles = append(profile.Styles, StyleQuestioning)
	}
	if f.ExclamationRatio > 0.15 {
		profile.Styles = append(profile.Styles, StyleExclamatory)
	}
	if f.LexicalDiversity > 0.7 {
		profile.Styles = append(profile.Styles, StyleRichVocabulary)
	} else {
		profile.Styles = append(profile.Styles, StyleRepetitive)
	}
	switch {
	case f.AvgSentenceLength > 20:
		profile.Styles = append(profile.Styles, StyleLongSentences)
	case f.AvgSentenceLength < 10:
		profile.Styles = append(profile.Styles, StyleShortSentences)
	}

	return profile
}
