package identity

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"speakerline/internal/logging"
	"speakerline/internal/services"
	"speakerline/internal/timeline"
)

type fakeSlicerFactory struct {
	opened  int
	cleaned int
}

func (f *fakeSlicerFactory) Open(string) (Slicer, func(), error) {
	f.opened++
	return fakeSlicer{}, func() { f.cleaned++ }, nil
}

type fakeSlicer struct{}

func (fakeSlicer) Slice(_ context.Context, _ int, startMs, _ int64) (string, error) {
	return fmt.Sprintf("%d", startMs), nil
}

// fakeEmbedder encodes the clip's start time as a one-dimensional vector.
type fakeEmbedder struct {
	delay func(clip string) time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, clip string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(clip)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	var start int64
	fmt.Sscanf(clip, "%d", &start)
	return []float32{float32(start)}, nil
}

// fakeClassifier answers by turn start; missing entries abstain.
type fakeClassifier map[int64]string

func (f fakeClassifier) Classify(vector []float32) (Match, bool) {
	identity, ok := f[int64(vector[0])]
	if !ok {
		return Match{}, false
	}
	return Match{Identity: identity, Similarity: 0.9}, true
}

func turn(startS, endS int64, speaker string) timeline.SpeakerTurn {
	return timeline.SpeakerTurn{StartMs: startS * 1000, EndMs: endS * 1000, SpeakerID: speaker}
}

func newTestResolver(opts Options, classifier Classifier, embedder *fakeEmbedder) (*Resolver, *fakeSlicerFactory) {
	factory := &fakeSlicerFactory{}
	if embedder == nil {
		embedder = &fakeEmbedder{}
	}
	return NewResolver(opts, factory, embedder, classifier, logging.NewNop()), factory
}

func TestResolveMajorityVote(t *testing.T) {
	turns := []timeline.SpeakerTurn{
		turn(0, 2, "S1"),
		turn(2, 4, "S2"),
		turn(4, 6, "S1"),
		turn(6, 8, "S1"),
		turn(8, 10, "S2"),
	}
	classifier := fakeClassifier{0: "alice", 4000: "alice", 6000: "bob", 2000: "carol", 8000: "dave"}
	resolver, factory := newTestResolver(DefaultOptions(), classifier, nil)

	resolution, err := resolver.Resolve(context.Background(), turns, "meeting.wav")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := map[string]string{"S1": "alice", "S2": "carol"}
	if !reflect.DeepEqual(resolution.Mapping, want) {
		t.Fatalf("mapping = %v want %v", resolution.Mapping, want)
	}
	if resolution.Clusters[0].ClusterID != "S1" || resolution.Clusters[0].VoteCount != 2 || resolution.Clusters[0].SampleCount != 3 {
		t.Fatalf("unexpected S1 resolution: %+v", resolution.Clusters[0])
	}
	if factory.opened != 1 || factory.cleaned != 1 {
		t.Fatalf("expected slicer opened and cleaned once, got %d/%d", factory.opened, factory.cleaned)
	}
}

func TestTally(t *testing.T) {
	tests := []struct {
		labels []string
		want   string
		count  int
		ok     bool
	}{
		{[]string{"A", "A", "B"}, "A", 2, true},
		{[]string{"A", "B"}, "A", 1, true},
		{[]string{"B", "A", "A", "B"}, "B", 2, true},
		{[]string{"C", "B", "B"}, "B", 2, true},
		{nil, "", 0, false},
	}
	for _, tc := range tests {
		winner, count, ok := Tally(tc.labels)
		if winner != tc.want || count != tc.count || ok != tc.ok {
			t.Errorf("Tally(%v) = %q, %d, %v want %q, %d, %v", tc.labels, winner, count, ok, tc.want, tc.count, tc.ok)
		}
	}
}

func TestSelectSamples(t *testing.T) {
	turns := []timeline.SpeakerTurn{
		{StartMs: 0, EndMs: 500, SpeakerID: "S1"},
		turn(1, 3, "S1"),
		turn(3, 5, "S1"),
		turn(5, 7, "S1"),
		turn(7, 9, "S2"),
		turn(400, 402, "S2"),
	}
	opts := Options{NSegments: 2, MinSegment: time.Second, MaxAudio: 5 * time.Minute}
	samples := SelectSamples(turns, opts)

	var starts []int64
	for i, sample := range samples {
		if sample.Seq != i {
			t.Fatalf("sample %d has seq %d", i, sample.Seq)
		}
		starts = append(starts, sample.Turn.StartMs)
	}
	if want := []int64{1000, 3000, 7000}; !reflect.DeepEqual(starts, want) {
		t.Fatalf("sampled starts %v want %v", starts, want)
	}

	opts.MaxAudio = 0
	if got := len(SelectSamples(turns, opts)); got != 4 {
		t.Fatalf("expected unlimited window to admit the late turn, got %d samples", got)
	}
}

func TestResolveUnresolvableCluster(t *testing.T) {
	turns := []timeline.SpeakerTurn{
		turn(0, 2, "S1"),
		{StartMs: 2000, EndMs: 2400, SpeakerID: "S2"},
		turn(3, 5, "S3"),
	}
	classifier := fakeClassifier{0: "alice"}
	resolver, _ := newTestResolver(DefaultOptions(), classifier, nil)

	resolution, err := resolver.Resolve(context.Background(), turns, "meeting.wav")
	if !errors.Is(err, services.ErrUnresolvableIdentity) {
		t.Fatalf("expected ErrUnresolvableIdentity, got %v", err)
	}
	if resolution.Mapping["S1"] != "alice" {
		t.Fatalf("expected resolved clusters to be reported, got %v", resolution.Mapping)
	}
}

func TestResolveTalliesInSamplingOrderWithWorkers(t *testing.T) {
	turns := []timeline.SpeakerTurn{
		turn(0, 2, "S1"),
		turn(2, 4, "S1"),
		turn(4, 6, "S1"),
		turn(6, 8, "S1"),
	}
	classifier := fakeClassifier{0: "bob", 2000: "alice", 4000: "alice", 6000: "bob"}
	embedder := &fakeEmbedder{delay: func(clip string) time.Duration {
		if clip == "0" {
			return 30 * time.Millisecond
		}
		return 0
	}}
	opts := DefaultOptions()
	opts.Workers = 4
	resolver, _ := newTestResolver(opts, classifier, embedder)

	resolution, err := resolver.Resolve(context.Background(), turns, "meeting.wav")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution.Mapping["S1"] != "bob" {
		t.Fatalf("expected tie to go to first sampled vote, got %q", resolution.Mapping["S1"])
	}
	votes := resolution.Clusters[0].Votes
	for i, vote := range votes {
		if vote.Seq != i {
			t.Fatalf("votes out of sampling order: %+v", votes)
		}
	}
}

func TestResolveEmbedFailureIsFatal(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("model crashed")}
	resolver, _ := newTestResolver(DefaultOptions(), fakeClassifier{}, embedder)
	_, err := resolver.Resolve(context.Background(), []timeline.SpeakerTurn{turn(0, 2, "S1")}, "meeting.wav")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestResolveRejectsEmptyTurns(t *testing.T) {
	resolver, _ := newTestResolver(DefaultOptions(), fakeClassifier{}, nil)
	if _, err := resolver.Resolve(context.Background(), nil, "x.wav"); !errors.Is(err, services.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRewrite(t *testing.T) {
	turns := []timeline.SpeakerTurn{turn(0, 1, "S1"), turn(1, 2, "S2"), turn(2, 3, "S3")}
	got := Rewrite(turns, map[string]string{"S1": "alice", "S2": "bob"})
	want := []timeline.SpeakerTurn{
		{StartMs: 0, EndMs: 1000, SpeakerID: "alice"},
		{StartMs: 1000, EndMs: 2000, SpeakerID: "bob"},
		{StartMs: 2000, EndMs: 3000, SpeakerID: "S3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rewrite = %+v want %+v", got, want)
	}
	if turns[0].SpeakerID != "S1" {
		t.Fatal("input turns were modified")
	}
}
