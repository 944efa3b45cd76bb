package model

// ClusterMember is a record placed in a cluster by the similarity model.
type ClusterMember struct {
	RecordID   string  `json:"record_id"`
	Confidence float64 `json:"confidence"`
}

// Cluster groups records the model believes are the same entity.
type Cluster struct {
	Members []ClusterMember `json:"members"`
}

// IDs returns the member record ids in cluster order.
func (c Cluster) IDs() []string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.RecordID
	}
	return ids
}

// AugmentedRecord is a record stamped with its cluster assignment, if any.
type AugmentedRecord struct {
	Record
	ClusterID  *int     `json:"cluster,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}
