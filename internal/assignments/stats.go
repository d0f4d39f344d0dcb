package assignments

// Stats aggregates a flat assignment set. It is recomputed from the current
// set on every read and never cached on its own, so it cannot drift from
// the underlying records.
type Stats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalAssignments int `json:"totalAssignments"`
	ActiveCount      int `json:"activeCount"`
	InactiveCount    int `json:"inactiveCount"`
}

// ComputeStats aggregates the list. activeCount + inactiveCount always
// equals totalAssignments.
func ComputeStats(list []Assignment) Stats {
	stats := Stats{TotalAssignments: len(list)}
	seen := make(map[int64]struct{}, len(list))
	for _, a := range list {
		if _, ok := seen[a.UserID]; !ok {
			seen[a.UserID] = struct{}{}
			stats.TotalUsers++
		}
		if a.IsActive {
			stats.ActiveCount++
		} else {
			stats.InactiveCount++
		}
	}
	return stats
}

// UserGroup partitions one user's assignments by is_active.
type UserGroup struct {
	UserID   int64        `json:"user_id"`
	Active   []Assignment `json:"active"`
	Inactive []Assignment `json:"inactive"`
}

// GroupByUser groups a flat assignment set by user_id, preserving the
// first-seen order of users. Every input record lands in exactly one
// sublist of exactly one group.
func GroupByUser(list []Assignment) []UserGroup {
	index := make(map[int64]int, len(list))
	var groups []UserGroup
	for _, a := range list {
		i, ok := index[a.UserID]
		if !ok {
			i = len(groups)
			index[a.UserID] = i
			groups = append(groups, UserGroup{UserID: a.UserID})
		}
		if a.IsActive {
			groups[i].Active = append(groups[i].Active, a)
		} else {
			groups[i].Inactive = append(groups[i].Inactive, a)
		}
	}
	return groups
}
