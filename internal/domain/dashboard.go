package domain

// Dashboard is the overview shown to one caller: system-wide metrics plus
// the caller's own projects and deadlines.
type Dashboard struct {
	Projects       ProjectMetrics
	Tasks          TaskMetrics
	Team           TeamMetrics
	RecentProjects []ProjectSummary
	MyProjects     []ProjectSummary
	UpcomingTasks  []TaskDetail
	RecentActivity []ActivityEntry
}
