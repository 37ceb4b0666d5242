package ring

import (
	"testing"

	"github.com/dreamware/ringkv/internal/hashutil"
)

func TestNewBucketSortsPoints(t *testing.T) {
	b := NewBucket("b0", []float64{0.5, 0.1, 0.9, 0.3})

	want := []float64{0.1, 0.3, 0.5, 0.9}
	got := b.Points()
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if !hashutil.NearlyEqual(got[i], want[i]) {
			t.Errorf("point %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestBucketAddPointKeepsSortOrder(t *testing.T) {
	b := NewBucket("b0", []float64{0.1, 0.5, 0.9})
	b.AddPoint(0.3)

	want := []float64{0.1, 0.3, 0.5, 0.9}
	got := b.Points()
	for i := range want {
		if !hashutil.NearlyEqual(got[i], want[i]) {
			t.Fatalf("expected %v at index %d, got %v", want[i], i, got[i])
		}
	}
}

func TestBucketRemovePoint(t *testing.T) {
	tests := []struct {
		name    string
		points  []float64
		index   int
		wantErr bool
	}{
		{name: "valid index", points: []float64{0.1, 0.5, 0.9}, index: 1, wantErr: false},
		{name: "negative index", points: []float64{0.1, 0.5, 0.9}, index: -1, wantErr: true},
		{name: "index past end", points: []float64{0.1, 0.5, 0.9}, index: 3, wantErr: true},
		{name: "empty bucket", points: nil, index: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBucket("b0", tt.points)
			err := b.RemovePoint(tt.index)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RemovePoint(%d) error = %v, wantErr %v", tt.index, err, tt.wantErr)
			}
			if !tt.wantErr && b.Len() != len(tt.points)-1 {
				t.Errorf("expected %d points remaining, got %d", len(tt.points)-1, b.Len())
			}
		})
	}
}

func TestBucketPartitionPointWraps(t *testing.T) {
	b := NewBucket("b0", []float64{0.1, 0.5, 0.9})

	_, p, err := b.PartitionPoint(0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hashutil.NearlyEqual(p, 0.1) {
		t.Errorf("expected wraparound to 0.1, got %v", p)
	}

	idx, p, err := b.PartitionPoint(0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 || !hashutil.NearlyEqual(p, 0.5) {
		t.Errorf("expected index 1 / point 0.5, got index %d / point %v", idx, p)
	}
}

func TestBucketPartitionPointEmpty(t *testing.T) {
	b := NewBucket("b0", nil)
	if _, _, err := b.PartitionPoint(0.5); err != ErrOutOfRange {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}
