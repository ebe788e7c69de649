package progress

import "testing"

func TestMapperStageRanges(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		stage Status
		local float64
		want  int
	}{
		{"upload reading start", KindUpload, StatusReading, 0, 0},
		{"upload reading end", KindUpload, StatusReading, 100, 5},
		{"upload storing midpoint", KindUpload, StatusStoring, 50, 68},
		{"upload storing end", KindUpload, StatusStoring, 100, 100},
		{"crawl crawling midpoint", KindCrawl, StatusCrawling, 50, 18},
		{"crawl finalizing end", KindCrawl, StatusFinalizing, 100, 100},
		{"local below range clamps", KindUpload, StatusReading, -20, 0},
		{"local above range clamps", KindUpload, StatusReading, 250, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStageMapper(tt.kind)
			if got := m.Map(tt.stage, tt.local); got != tt.want {
				t.Errorf("Map(%s, %v) = %d, want %d", tt.stage, tt.local, got, tt.want)
			}
		})
	}
}

func TestMapperMonotonic(t *testing.T) {
	m := NewStageMapper(KindCrawl)

	if got := m.Map(StatusCrawling, 80); got != 25 {
		t.Fatalf("Map(crawling, 80) = %d, want 25", got)
	}
	// An out-of-order update from an earlier stage must not go backwards.
	if got := m.Map(StatusAnalyzing, 100); got != 25 {
		t.Errorf("Map(analyzing, 100) after crawling = %d, want 25", got)
	}
	if got := m.Map(StatusProcessing, 0); got != 30 {
		t.Errorf("Map(processing, 0) = %d, want 30", got)
	}
}

func TestMapperTerminalStages(t *testing.T) {
	m := NewStageMapper(KindUpload)
	m.Map(StatusCodeExtraction, 50) // 25

	if got := m.Map(StatusError, 0); got != 25 {
		t.Errorf("Map(error) = %d, want frozen 25", got)
	}
	if got := m.Map(StatusCancelled, 0); got != 25 {
		t.Errorf("Map(cancelled) = %d, want frozen 25", got)
	}
	if got := m.Map(StatusCompleted, 0); got != 100 {
		t.Errorf("Map(completed) = %d, want 100", got)
	}
}

func TestMapperUnknownStageFreezes(t *testing.T) {
	m := NewStageMapper(KindUpload)
	m.Map(StatusChunking, 100) // 15

	// Crawl-only stage is unknown for upload operations.
	if got := m.Map(StatusCrawling, 100); got != 15 {
		t.Errorf("Map(crawling) for upload = %d, want frozen 15", got)
	}
}

func TestMappersAreIndependent(t *testing.T) {
	a := NewStageMapper(KindUpload)
	b := NewStageMapper(KindUpload)

	a.Map(StatusStoring, 100)
	if got := b.Map(StatusReading, 0); got != 0 {
		t.Errorf("fresh mapper returned %d, want 0", got)
	}
}
