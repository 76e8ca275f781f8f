package models

// SearchQuota is the per-session search allowance.
type SearchQuota struct {
	Used int
	Max  int
}

// Remaining returns how many searches are left, never negative.
func (q SearchQuota) Remaining() int {
	if q.Used >= q.Max {
		return 0
	}
	return q.Max - q.Used
}

// Exhausted reports whether no searches are left.
func (q SearchQuota) Exhausted() bool {
	return q.Remaining() == 0
}
