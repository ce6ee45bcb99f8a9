package domain

// Word is a single word with its start/end offsets in seconds, as reported
// by the transcription backend.
type Word struct {
	Word  string  `bson:"word" json:"word"`
	Start float64 `bson:"start" json:"start"`
	End   float64 `bson:"end" json:"end"`
}

// TranscriptSegment is the atomic unit produced by the transcription backend:
// a span of speech with timestamps and optional word-level timing.
// Segments are produced once per transcription call and never mutated.
type TranscriptSegment struct {
	Start float64 `bson:"start" json:"start"`
	End   float64 `bson:"end" json:"end"`
	Text  string  `bson:"text" json:"text"`
	Words []Word  `bson:"words,omitempty" json:"words,omitempty"`
}

// Transcript is the full output of one transcription call.
type Transcript struct {
	Segments []TranscriptSegment `bson:"segments" json:"segments"`
	Duration float64             `bson:"duration" json:"duration"`
	Text     string              `bson:"text" json:"text"`
}

// SpeakerAssignment maps a segment index (0-based, dense) to a speaker label
// such as "Speaker_0". A nil or empty assignment means speakers are unknown.
type SpeakerAssignment map[int]string
