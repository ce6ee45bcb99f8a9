package diarize

import (
	"strconv"
	"strings"
	"testing"

	"podcast-rag/pkg/domain"
)

func TestAssignSpeakers_Empty(t *testing.T) {
	s := NewPauseSegmenter()

	assignment, err := s.AssignSpeakers(nil)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got %v", err)
	}
	if len(assignment) != 0 {
		t.Fatalf("Expected empty assignment, got %d entries", len(assignment))
	}
}

func TestAssignSpeakers_SingleSegment(t *testing.T) {
	s := NewPauseSegmenter()

	assignment, err := s.AssignSpeakers([]domain.TranscriptSegment{
		{Start: 0, End: 5, Text: "hello"},
	})
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}
	if assignment[0] != "Speaker_0" {
		t.Errorf("Expected first segment to be Speaker_0, got %q", assignment[0])
	}
}

func TestAssignSpeakers_PauseOpensNewSpeaker(t *testing.T) {
	s := NewPauseSegmenter()

	// 3s pause between segment 1 and 2 exceeds the 2s threshold.
	segments := []domain.TranscriptSegment{
		{Start: 0, End: 10, Text: "hello"},
		{Start: 10.5, End: 15, Text: "world"},
		{Start: 18, End: 25, Text: "ok"},
	}

	assignment, err := s.AssignSpeakers(segments)
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}

	want := []string{"Speaker_0", "Speaker_0", "Speaker_1"}
	for i, expected := range want {
		if assignment[i] != expected {
			t.Errorf("Segment %d: expected %q, got %q", i, expected, assignment[i])
		}
	}
}

func TestAssignSpeakers_CoversEverySegment(t *testing.T) {
	s := NewPauseSegmenter()

	segments := []domain.TranscriptSegment{
		{Start: 0, End: 1},
		{Start: 1.1, End: 2},
		{Start: 6, End: 7},
		{Start: 7.2, End: 8},
		{Start: 20, End: 22},
	}

	assignment, err := s.AssignSpeakers(segments)
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}
	if len(assignment) != len(segments) {
		t.Fatalf("Expected %d labels, got %d", len(segments), len(assignment))
	}
	for i := range segments {
		if _, ok := assignment[i]; !ok {
			t.Errorf("Segment %d has no speaker label", i)
		}
	}
}

func TestAssignSpeakers_MonotoneLabels(t *testing.T) {
	s := NewPauseSegmenter()

	// Alternating pauses: labels must be non-decreasing and never reused
	// out of order.
	segments := []domain.TranscriptSegment{
		{Start: 0, End: 1},
		{Start: 5, End: 6},
		{Start: 6.1, End: 7},
		{Start: 12, End: 13},
		{Start: 13.1, End: 14},
		{Start: 20, End: 21},
	}

	assignment, err := s.AssignSpeakers(segments)
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}

	prev := -1
	for i := 0; i < len(segments); i++ {
		suffix := strings.TrimPrefix(assignment[i], "Speaker_")
		n, err := strconv.Atoi(suffix)
		if err != nil {
			t.Fatalf("Segment %d: malformed label %q", i, assignment[i])
		}
		if n < prev {
			t.Errorf("Segment %d: speaker index decreased from %d to %d", i, prev, n)
		}
		prev = n
	}
	if assignment[len(segments)-1] != "Speaker_3" {
		t.Errorf("Expected final label Speaker_3, got %q", assignment[len(segments)-1])
	}
}

func TestAssignSpeakers_ExactThresholdDoesNotSwitch(t *testing.T) {
	s := NewPauseSegmenter()

	// A pause of exactly 2.0s is not greater than the threshold.
	segments := []domain.TranscriptSegment{
		{Start: 0, End: 4},
		{Start: 6, End: 9},
	}

	assignment, err := s.AssignSpeakers(segments)
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}
	if assignment[1] != "Speaker_0" {
		t.Errorf("Expected same speaker at exact threshold, got %q", assignment[1])
	}
}

func TestAssignSpeakers_CustomThreshold(t *testing.T) {
	s := &PauseSegmenter{PauseThreshold: 0.5}

	segments := []domain.TranscriptSegment{
		{Start: 0, End: 4},
		{Start: 5, End: 9},
	}

	assignment, err := s.AssignSpeakers(segments)
	if err != nil {
		t.Fatalf("AssignSpeakers failed: %v", err)
	}
	if assignment[1] != "Speaker_1" {
		t.Errorf("Expected speaker change with 0.5s threshold, got %q", assignment[1])
	}
}
