package api

import (
	"time"

	"github.com/go-openapi/strfmt"

	"avencia-pm/internal/domain"
)

// === Response bodies ===

// User is the public view of an account. The password hash never leaves the
// service layer.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Avatar     *string    `json:"avatar,omitempty"`
	Role       string     `json:"role"`
	Department *string    `json:"department,omitempty"`
	Title      *string    `json:"title,omitempty"`
	Status     string     `json:"status"`
	Timezone   string     `json:"timezone"`
	Language   string     `json:"language"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Project is a project with optional summary columns.
type Project struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Progress      int        `json:"progress"`
	Budget        *float64   `json:"budget,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedBy     *string    `json:"created_by,omitempty"`
	CreatedByName *string    `json:"created_by_name,omitempty"`
	MemberCount   *int64     `json:"member_count,omitempty"`
	TaskCount     *int64     `json:"task_count,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProjectMember is a user's membership in a project.
type ProjectMember struct {
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	UserAvatar *string   `json:"user_avatar,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
}

// TaskCounts is shared by project stats and the task dashboard.
type TaskCounts struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Review     int64 `json:"review"`
	Done       int64 `json:"done"`
	Blocked    int64 `json:"blocked"`
	Overdue    int64 `json:"overdue"`
}

// Task is a task with related names, counts and tags.
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	ProjectID      string     `json:"project_id"`
	ProjectName    *string    `json:"project_name,omitempty"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	AssigneeName   *string    `json:"assignee_name,omitempty"`
	AssigneeAvatar *string    `json:"assignee_avatar,omitempty"`
	CreatedBy      *string    `json:"created_by,omitempty"`
	CreatorName    *string    `json:"creator_name,omitempty"`
	ParentTaskID   *string    `json:"parent_task_id,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CommentCount   int64      `json:"comment_count"`
	Tags           []string   `json:"tags"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Comment is a comment on a task.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    *string   `json:"user_id,omitempty"`
	UserName  *string   `json:"user_name,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityEntry is one activity log record. Metadata is passed through as
// the stored JSON document.
type ActivityEntry struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	UserName    *string   `json:"user_name,omitempty"`
	Action      string    `json:"action"`
	EntityType  *string   `json:"entity_type,omitempty"`
	EntityID    *string   `json:"entity_id,omitempty"`
	EntityName  *string   `json:"entity_name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Metadata    *rawJSON  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// rawJSON marshals a stored JSON document without re-encoding it as a string.
type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *rawJSON) UnmarshalJSON(data []byte) error {
	*r = rawJSON(data)
	return nil
}

// ProjectMetrics counts projects by status.
type ProjectMetrics struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Completed   int64 `json:"completed"`
	OnHold      int64 `json:"on_hold"`
	Overdue     int64 `json:"overdue"`
	AvgProgress int64 `json:"avg_progress"`
}

// DepartmentCount is the active headcount of one department.
type DepartmentCount struct {
	Department  string `json:"department"`
	MemberCount int64  `json:"member_count"`
}

// TeamMetrics counts user accounts.
type TeamMetrics struct {
	TotalMembers  int64             `json:"total_members"`
	ActiveMembers int64             `json:"active_members"`
	OnlineMembers int64             `json:"online_members"`
	Departments   []DepartmentCount `json:"departments"`
}

// Dashboard is the caller's home-screen overview.
type Dashboard struct {
	ProjectMetrics ProjectMetrics  `json:"project_metrics"`
	TaskMetrics    TaskCounts      `json:"task_metrics"`
	TeamMetrics    TeamMetrics     `json:"team_metrics"`
	RecentProjects []Project       `json:"recent_projects"`
	MyProjects     []Project       `json:"my_projects"`
	UpcomingTasks  []Task          `json:"upcoming_tasks"`
	RecentActivity []ActivityEntry `json:"recent_activity"`
}

// LoginResponse carries an issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// === Request bodies ===

type createUserBody struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Avatar     *string `json:"avatar"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
	Title      *string `json:"title"`
	Timezone   *string `json:"timezone"`
	Language   *string `json:"language"`
}

type updateUserBody struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Avatar     *string `json:"avatar"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	Title      *string `json:"title"`
	Timezone   *string `json:"timezone"`
	Language   *string `json:"language"`
}

type userStatusBody struct {
	Status string `json:"status"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createProjectBody struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Budget      *float64     `json:"budget"`
	StartDate   *strfmt.Date `json:"start_date"`
	DueDate     *strfmt.Date `json:"due_date"`
}

type updateProjectBody struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Priority    *string      `json:"priority"`
	Progress    *int         `json:"progress"`
	Budget      *float64     `json:"budget"`
	StartDate   *strfmt.Date `json:"start_date"`
	DueDate     *strfmt.Date `json:"due_date"`
}

type addMemberBody struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type createTaskBody struct {
	Title          string           `json:"title"`
	Description    *string          `json:"description"`
	Status         string           `json:"status"`
	Priority       string           `json:"priority"`
	ProjectID      string           `json:"project_id"`
	AssignedTo     *string          `json:"assigned_to"`
	ParentTaskID   *string          `json:"parent_task_id"`
	EstimatedHours *float64         `json:"estimated_hours"`
	DueDate        *strfmt.DateTime `json:"due_date"`
	Tags           []string         `json:"tags"`
}

type updateTaskBody struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status"`
	Priority       *string          `json:"priority"`
	AssignedTo     *string          `json:"assigned_to"`
	EstimatedHours *float64         `json:"estimated_hours"`
	ActualHours    *float64         `json:"actual_hours"`
	DueDate        *strfmt.DateTime `json:"due_date"`
	Tags           *[]string        `json:"tags"`
}

type tagsBody struct {
	Tags []string `json:"tags"`
}

type commentBody struct {
	Content string `json:"content"`
}

// === Request mapping ===

func dateTime(d *strfmt.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func timestamp(d *strfmt.DateTime) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func enumPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

func (b createUserBody) toDomain() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Name:       b.Name,
		Email:      b.Email,
		Password:   b.Password,
		Avatar:     b.Avatar,
		Role:       domain.UserRole(b.Role),
		Department: b.Department,
		Title:      b.Title,
		Timezone:   b.Timezone,
		Language:   b.Language,
	}
}

func (b updateUserBody) toDomain() domain.UpdateUserRequest {
	return domain.UpdateUserRequest{
		Name:       b.Name,
		Email:      b.Email,
		Avatar:     b.Avatar,
		Role:       enumPtr[domain.UserRole](b.Role),
		Department: b.Department,
		Title:      b.Title,
		Timezone:   b.Timezone,
		Language:   b.Language,
	}
}

func (b createProjectBody) toDomain() domain.CreateProjectRequest {
	return domain.CreateProjectRequest{
		Name:        b.Name,
		Description: b.Description,
		Status:      domain.ProjectStatus(b.Status),
		Priority:    domain.Priority(b.Priority),
		Budget:      b.Budget,
		StartDate:   dateTime(b.StartDate),
		DueDate:     dateTime(b.DueDate),
	}
}

func (b updateProjectBody) toDomain() domain.UpdateProjectRequest {
	return domain.UpdateProjectRequest{
		Name:        b.Name,
		Description: b.Description,
		Status:      enumPtr[domain.ProjectStatus](b.Status),
		Priority:    enumPtr[domain.Priority](b.Priority),
		Progress:    b.Progress,
		Budget:      b.Budget,
		StartDate:   dateTime(b.StartDate),
		DueDate:     dateTime(b.DueDate),
	}
}

func (b createTaskBody) toDomain() domain.CreateTaskRequest {
	return domain.CreateTaskRequest{
		Title:          b.Title,
		Description:    b.Description,
		Status:         domain.TaskStatus(b.Status),
		Priority:       domain.Priority(b.Priority),
		ProjectID:      b.ProjectID,
		AssignedTo:     b.AssignedTo,
		ParentTaskID:   b.ParentTaskID,
		EstimatedHours: b.EstimatedHours,
		DueDate:        timestamp(b.DueDate),
		Tags:           b.Tags,
	}
}

func (b updateTaskBody) toDomain() domain.UpdateTaskRequest {
	req := domain.UpdateTaskRequest{
		Title:          b.Title,
		Description:    b.Description,
		Status:         enumPtr[domain.TaskStatus](b.Status),
		Priority:       enumPtr[domain.Priority](b.Priority),
		AssignedTo:     b.AssignedTo,
		EstimatedHours: b.EstimatedHours,
		ActualHours:    b.ActualHours,
		DueDate:        timestamp(b.DueDate),
	}
	if b.Tags != nil {
		req.Tags = *b.Tags
		if req.Tags == nil {
			req.Tags = []string{}
		}
	}
	return req
}

// === Mapping helpers ===

func userToAPI(u domain.User) User {
	return User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Role:       string(u.Role),
		Department: u.Department,
		Title:      u.Title,
		Status:     string(u.Status),
		Timezone:   u.Timezone,
		Language:   u.Language,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func projectToAPI(p domain.Project) Project {
	return Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Progress:    p.Progress,
		Budget:      p.Budget,
		StartDate:   p.StartDate,
		DueDate:     p.DueDate,
		CreatedBy:   p.CreatedBy,
		CompletedAt: p.CompletedAt,
		ArchivedAt:  p.ArchivedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func projectSummaryToAPI(s domain.ProjectSummary) Project {
	p := projectToAPI(s.Project)
	p.CreatedByName = s.CreatedByName
	p.MemberCount = &s.MemberCount
	p.TaskCount = &s.TaskCount
	return p
}

func memberToAPI(m domain.ProjectMember) ProjectMember {
	return ProjectMember{
		ProjectID:  m.ProjectID,
		UserID:     m.UserID,
		Role:       string(m.Role),
		UserName:   m.UserName,
		UserEmail:  m.UserEmail,
		UserAvatar: m.UserAvatar,
		JoinedAt:   m.JoinedAt,
	}
}

func projectStatsToAPI(s domain.ProjectStats) TaskCounts {
	return TaskCounts{
		Total:      s.TotalTasks,
		Todo:       s.TodoTasks,
		InProgress: s.InProgressTasks,
		Review:     s.ReviewTasks,
		Done:       s.DoneTasks,
		Blocked:    s.BlockedTasks,
		Overdue:    s.OverdueTasks,
	}
}

func taskMetricsToAPI(m domain.TaskMetrics) TaskCounts {
	return TaskCounts{
		Total:      m.TotalTasks,
		Todo:       m.TodoTasks,
		InProgress: m.InProgressTasks,
		Review:     m.ReviewTasks,
		Done:       m.DoneTasks,
		Blocked:    m.BlockedTasks,
		Overdue:    m.OverdueTasks,
	}
}

func taskToAPI(t domain.TaskDetail) Task {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return Task{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		ProjectID:      t.ProjectID,
		ProjectName:    t.ProjectName,
		AssignedTo:     t.AssignedTo,
		AssigneeName:   t.AssigneeName,
		AssigneeAvatar: t.AssigneeAvatar,
		CreatedBy:      t.CreatedBy,
		CreatorName:    t.CreatorName,
		ParentTaskID:   t.ParentTaskID,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		DueDate:        t.DueDate,
		CompletedAt:    t.CompletedAt,
		CommentCount:   t.CommentCount,
		Tags:           tags,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func commentToAPI(c domain.Comment) Comment {
	return Comment{
		ID:        c.ID,
		TaskID:    c.TaskID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func activityToAPI(e domain.ActivityEntry) ActivityEntry {
	out := ActivityEntry{
		ID:          e.ID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		EntityName:  e.EntityName,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.Metadata != nil && *e.Metadata != "" {
		m := rawJSON(*e.Metadata)
		out.Metadata = &m
	}
	return out
}

func dashboardToAPI(d domain.Dashboard) Dashboard {
	return Dashboard{
		ProjectMetrics: ProjectMetrics{
			Total:       d.Projects.Total,
			Active:      d.Projects.Active,
			Completed:   d.Projects.Completed,
			OnHold:      d.Projects.OnHold,
			Overdue:     d.Projects.Overdue,
			AvgProgress: d.Projects.AvgProgress,
		},
		TaskMetrics: taskMetricsToAPI(d.Tasks),
		TeamMetrics: TeamMetrics{
			TotalMembers:  d.Team.TotalMembers,
			ActiveMembers: d.Team.ActiveMembers,
			OnlineMembers: d.Team.OnlineMembers,
			Departments: mapSlice(d.Team.Departments, func(c domain.DepartmentCount) DepartmentCount {
				return DepartmentCount{Department: c.Department, MemberCount: c.MemberCount}
			}),
		},
		RecentProjects: mapSlice(d.RecentProjects, projectSummaryToAPI),
		MyProjects:     mapSlice(d.MyProjects, projectSummaryToAPI),
		UpcomingTasks:  mapSlice(d.UpcomingTasks, taskToAPI),
		RecentActivity: mapSlice(d.RecentActivity, activityToAPI),
	}
}
