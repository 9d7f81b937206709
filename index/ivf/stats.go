package ivf

// Stats summarises the lists of the last build.
type Stats struct {
	Dimension     int     `json:"dimension"`
	NLists        int     `json:"n_lists"`
	Vectors       int     `json:"vectors"`
	Built         bool    `json:"built"`
	MinListSize   int     `json:"min_list_size"`
	MaxListSize   int     `json:"max_list_size"`
	MeanListSize  float64 `json:"mean_list_size"`
	EmptyLists    int     `json:"empty_lists"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	EmptyClusters int     `json:"empty_clusters"`
}

// Stats returns list occupancy and training figures of the last build.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	st := Stats{
		Dimension: x.dim,
		NLists:    x.nLists,
		Vectors:   x.count,
		Built:     x.built,
	}
	if !x.built {
		return st
	}

	st.Iterations = x.train.Iterations
	st.Converged = x.train.Converged
	st.EmptyClusters = x.train.EmptyClusters
	st.MinListSize = len(x.lists[0])
	for _, l := range x.lists {
		st.MinListSize = min(st.MinListSize, len(l))
		st.MaxListSize = max(st.MaxListSize, len(l))
		if len(l) == 0 {
			st.EmptyLists++
		}
	}
	st.MeanListSize = float64(x.count) / float64(x.nLists)
	return st
}
