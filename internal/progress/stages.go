package progress

// StageRange is a sub-range of the global 0-100 progress scale.
type StageRange struct {
	Lo int
	Hi int
}

// stageRanges partitions [0,100] per operation kind. Ranges are data, not
// code: adding a kind means adding a table entry, the mapper algorithm does
// not change. Later stages get wider ranges where they dominate wall-clock
// cost (embedding generation dominates both kinds, hence storing is widest).
var stageRanges = map[Kind]map[Status]StageRange{
	KindUpload: {
		StatusReading:        {0, 5},
		StatusTextExtraction: {5, 10},
		StatusChunking:       {10, 15},
		StatusCodeExtraction: {15, 35},
		StatusStoring:        {35, 100},
	},
	KindCrawl: {
		StatusAnalyzing:      {0, 5},
		StatusCrawling:       {5, 30},
		StatusProcessing:     {30, 45},
		StatusCodeExtraction: {45, 60},
		StatusStoring:        {60, 95},
		StatusFinalizing:     {95, 100},
	},
}

// StageRangeFor returns the global range for a stage of the given kind.
func StageRangeFor(kind Kind, stage Status) (StageRange, bool) {
	table, ok := stageRanges[kind]
	if !ok {
		return StageRange{}, false
	}
	r, ok := table[stage]
	return r, ok
}
