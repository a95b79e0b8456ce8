package domain

import "fmt"

// Tone is a named emotional dimension used as a sort key.
type Tone string

const (
	// ToneAll disables tone sorting.
	ToneAll Tone = "All"
	// ToneHappy sorts by joy.
	ToneHappy Tone = "Happy"
	// ToneSurprising sorts by surprise.
	ToneSurprising Tone = "Surprising"
	// ToneAngry sorts by anger.
	ToneAngry Tone = "Angry"
	// ToneSuspenseful sorts by fear.
	ToneSuspenseful Tone = "Suspenseful"
	// ToneSad sorts by sadness.
	ToneSad Tone = "Sad"
)

// Tones lists the selectable tones in UI order.
func Tones() []Tone {
	return []Tone{ToneAll, ToneHappy, ToneSurprising, ToneAngry, ToneSuspenseful, ToneSad}
}

// ParseTone validates a tone label. Empty means unset and maps to ToneAll.
func ParseTone(s string) (Tone, error) {
	if s == "" {
		return ToneAll, nil
	}
	for _, t := range Tones() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q: %w", s, ErrInvalidQuery)
}

// Sorts reports whether the tone imposes an ordering.
func (t Tone) Sorts() bool {
	return t != ToneAll && t != ""
}

// Score returns the emotion score this tone sorts by.
func (t Tone) Score(e Emotions) float64 {
	switch t {
	case ToneHappy:
		return e.Joy
	case ToneSurprising:
		return e.Surprise
	case ToneAngry:
		return e.Anger
	case ToneSuspenseful:
		return e.Fear
	case ToneSad:
		return e.Sadness
	default:
		return 0
	}
}
