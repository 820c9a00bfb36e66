package model

// Member is one sequence of a UniRef50 cluster.
type Member struct {
	ID       string `json:"id"`
	Length   int    `json:"length"`
	Sequence string `json:"sequence,omitempty"`
}

// Sub struct, embed
type ProteinSide struct {
	InputID     string    `json:"input_id"`
	ID          string    `json:"id"`
	ClusterID   string    `json:"cluster_id"`
	MemberCount int       `json:"member_count"`
	Members     []*Member `json:"members,omitempty"`
}

// ComparisonSummary is the serialisable view of a Comparison.
type ComparisonSummary struct {
	A             ProteinSide `json:"a"`
	B             ProteinSide `json:"b"`
	SharedCluster bool        `json:"shared_cluster"`
	SharedMembers []string    `json:"shared_members"`
	WithMembers   bool        `json:"with_members"`
}
