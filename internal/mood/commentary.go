package mood

// Canned remarks shown next to a summary. This is presentation copy keyed by
// the top label; it plays no part in classification.
var commentary = map[Category]string{
	Happy:     "It's great to see you in good spirits!",
	Sad:       "Looks like you might be feeling down. Take it easy.",
	Angry:     "There seems to be some frustration. A short break could help.",
	Surprised: "Something seems to have caught you off guard.",
	Fearful:   "You might be feeling a little anxious.",
	Disgusted: "Something appears to have bothered you.",
	Neutral:   "You seem calm and composed.",
}

func Commentary(c Category) string {
	return commentary[c]
}
