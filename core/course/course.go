// Package course defines the course data the agent reads and proposes changes
// to. Entities are plain records; the Snapshot interface is the read-only view
// the tool executor and validator query, and Persistence is the write path the
// operation executor calls after a human confirms an action.
package course

// Assignment status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Enrollment roles.
const (
	RoleInstructor = "instructor"
	RoleTA         = "ta"
	RoleStudent    = "student"
	RoleObserver   = "observer"
)

// Invite status values.
const (
	InviteActive   = "pending"
	InviteAccepted = "accepted"
	InviteRevoked  = "revoked"
)

type Course struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Term      string `json:"term,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// User is the caller of a conversation turn.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
}

type Assignment struct {
	ID                   string  `json:"id"`
	CourseID             string  `json:"courseId"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	AssignmentType       string  `json:"assignmentType"`
	GradingType          string  `json:"gradingType"`
	Points               float64 `json:"points"`
	DueDate              string  `json:"dueDate"`
	AvailableFrom        string  `json:"availableFrom,omitempty"`
	AvailableUntil       string  `json:"availableUntil,omitempty"`
	Status               string  `json:"status"`
	AllowLateSubmissions bool    `json:"allowLateSubmissions"`
	LatePenaltyPerDay    float64 `json:"latePenaltyPerDay"`
	AllowResubmission    bool    `json:"allowResubmission"`
	IsGroupAssignment    bool    `json:"isGroupAssignment"`
	GroupSetID           string  `json:"groupSetId,omitempty"`
	QuestionBankID       string  `json:"questionBankId,omitempty"`
	TimeLimitMinutes     int     `json:"timeLimitMinutes,omitempty"`
	Attempts             int     `json:"attempts,omitempty"`
}

type Announcement struct {
	ID        string `json:"id"`
	CourseID  string `json:"courseId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Pinned    bool   `json:"pinned"`
	Hidden    bool   `json:"hidden"`
	AuthorID  string `json:"authorId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type ModuleItem struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	RefID string `json:"refId,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

type Module struct {
	ID       string       `json:"id"`
	CourseID string       `json:"courseId"`
	Name     string       `json:"name"`
	Position int          `json:"position"`
	Hidden   bool         `json:"hidden"`
	Items    []ModuleItem `json:"items"`
}

type File struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	Size        int64  `json:"size"`
	StoragePath string `json:"storagePath,omitempty"`
	Hidden      bool   `json:"hidden"`
}

type Enrollment struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Invite struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer,omitempty"`
	Points  float64  `json:"points"`
}

type QuestionBank struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds,omitempty"`
}

type GroupSet struct {
	ID       string  `json:"id"`
	CourseID string  `json:"courseId"`
	Name     string  `json:"name"`
	Groups   []Group `json:"groups"`
}

type Grade struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"courseId"`
	AssignmentID string  `json:"assignmentId"`
	UserID       string  `json:"userId"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback,omitempty"`
	Released     bool    `json:"released"`
}

type Submission struct {
	ID           string `json:"id"`
	CourseID     string `json:"courseId"`
	AssignmentID string `json:"assignmentId"`
	UserID       string `json:"userId"`
	Status       string `json:"status"`
	SubmittedAt  string `json:"submittedAt,omitempty"`
}
