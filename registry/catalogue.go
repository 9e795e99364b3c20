package registry

// Names with special handling outside the per-type action table.
const (
	ActionPipeline    = "pipeline"
	EditPendingAction = "edit_pending_action"
)

func str(name, desc string) Field {
	return Field{Name: name, Type: "string", Description: desc}
}

func req(f Field) Field {
	f.Required = true
	return f
}

func num(name, desc string) Field {
	return Field{Name: name, Type: "number", Description: desc}
}

func flag(name, desc string) Field {
	return Field{Name: name, Type: "boolean", Description: desc}
}

func list(name, desc string) Field {
	return Field{Name: name, Type: "array", Description: desc}
}

var catalogueTools = []ToolDescriptor{
	{
		Name:        "get_course_info",
		Description: "Course id, name, code, and record counts.",
		StudentSafe: true,
	},
	{
		Name:        "list_assignments",
		Description: "Assignments with id, title, type, points, due date, and status.",
		Params:      []Param{str("status", "draft or published")},
		StudentSafe: true,
	},
	{
		Name:        "get_assignment",
		Description: "Full details of one assignment.",
		Params:      []Param{req(str("id", "assignment id"))},
		StudentSafe: true,
	},
	{
		Name:        "list_announcements",
		Description: "Announcements with id, title, pinned, and hidden.",
		StudentSafe: true,
	},
	{
		Name:        "get_announcement",
		Description: "Full text of one announcement.",
		Params:      []Param{req(str("id", "announcement id"))},
		StudentSafe: true,
	},
	{
		Name:        "list_modules",
		Description: "Modules with id, name, position, item count, and hidden.",
		StudentSafe: true,
	},
	{
		Name:        "get_module",
		Description: "One module with its items.",
		Params:      []Param{req(str("id", "module id"))},
		StudentSafe: true,
	},
	{
		Name:        "list_files",
		Description: "Course files with id, name, mime type, and size.",
		StudentSafe: true,
	},
	{
		Name:        "read_file_content",
		Description: "Contents of one course file, inline or as extracted text.",
		Params:      []Param{req(str("id", "file id"))},
		StudentSafe: true,
	},
	{
		Name:        "list_question_banks",
		Description: "Question banks with id, name, and question count.",
	},
	{
		Name:        "get_question_bank",
		Description: "One question bank with its full question list.",
		Params:      []Param{req(str("id", "question bank id"))},
	},
	{
		Name:        "list_enrollments",
		Description: "Enrolled users with enrollment id, user id, name, email, and role.",
		Params:      []Param{str("role", "instructor, ta, student, or observer")},
	},
	{
		Name:        "list_invites",
		Description: "Invites with id, email, role, and status.",
	},
	{
		Name:        "list_group_sets",
		Description: "Group sets with their groups and member counts.",
	},
	{
		Name:        "list_grades",
		Description: "Grades with assignment id, user id, score, and released flag.",
		Params:      []Param{str("assignmentId", "limit to one assignment")},
	},
	{
		Name:        "list_submissions",
		Description: "Submissions with assignment id, user id, status, and submission time.",
		Params:      []Param{str("assignmentId", "limit to one assignment")},
	},
}

var assignmentFields = []Field{
	str("description", "instructions shown to students"),
	str("assignmentType", "essay, quiz, file_upload, discussion, or no_submission"),
	str("gradingType", "points, percentage, pass_fail, or letter"),
	num("points", "points possible"),
	str("dueDate", "local wall-clock YYYY-MM-DDTHH:MM"),
	str("availableFrom", "local wall-clock YYYY-MM-DDTHH:MM"),
	str("availableUntil", "local wall-clock YYYY-MM-DDTHH:MM"),
	str("status", "draft or published"),
	flag("publish", "publish immediately"),
	flag("allowLateSubmissions", "accept work after the due date"),
	num("latePenaltyPerDay", "percent deducted per late day"),
	flag("allowResubmission", "allow students to resubmit"),
	flag("isGroupAssignment", "submitted per group; requires a group set"),
	str("groupSetId", "group set id for group assignments"),
	str("groupSetName", "group set name, resolved to an id"),
	str("questionBankId", "question bank id for quizzes"),
	str("questionBankName", "question bank name, resolved to an id"),
	num("timeLimitMinutes", "quiz time limit, 0 for none"),
	num("attempts", "allowed attempts"),
}

func withFields(head []Field, tail []Field) []Field {
	out := make([]Field, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

var catalogueActions = []ActionDescriptor{
	{
		Name:        "create_assignment",
		Description: "Create an assignment. Quizzes are assignments with assignmentType quiz and a question bank.",
		Fields:      withFields([]Field{req(str("title", "assignment title"))}, assignmentFields),
	},
	{
		Name:        "update_assignment",
		Description: "Change fields of an existing assignment.",
		Fields:      withFields([]Field{req(str("id", "assignment id")), str("title", "new title")}, assignmentFields),
	},
	{
		Name:        "delete_assignment",
		Description: "Delete an assignment and its submissions.",
		Fields:      []Field{req(str("id", "assignment id"))},
		Dangerous:   true,
	},
	{
		Name:        "publish_assignment",
		Description: "Publish a draft assignment. Requires title, description, points, and due date.",
		Fields:      []Field{req(str("id", "assignment id"))},
	},
	{
		Name:        "create_announcement",
		Description: "Create an announcement. Stays hidden until published.",
		Fields: []Field{
			req(str("title", "headline")),
			req(str("content", "announcement body")),
			flag("pinned", "pin to the top"),
			flag("publish", "make visible immediately"),
		},
	},
	{
		Name:        "update_announcement",
		Description: "Change an existing announcement.",
		Fields: []Field{
			req(str("id", "announcement id")),
			str("title", "headline"),
			str("content", "announcement body"),
			flag("pinned", "pin to the top"),
			flag("publish", "make visible"),
		},
	},
	{
		Name:        "delete_announcement",
		Description: "Delete an announcement.",
		Fields:      []Field{req(str("id", "announcement id"))},
		Dangerous:   true,
	},
	{
		Name:        "publish_announcement",
		Description: "Make a hidden announcement visible. Requires title and content.",
		Fields:      []Field{req(str("id", "announcement id"))},
	},
	{
		Name:        "create_module",
		Description: "Create a module.",
		Fields: []Field{
			req(str("name", "module name")),
			num("position", "1-based position, 0 appends"),
			flag("hidden", "hide from students"),
		},
	},
	{
		Name:        "update_module",
		Description: "Rename, reorder, or hide a module.",
		Fields: []Field{
			req(str("id", "module id")),
			str("name", "module name"),
			num("position", "1-based position"),
			flag("hidden", "hide from students"),
		},
	},
	{
		Name:        "delete_module",
		Description: "Delete a module. Linked records are kept.",
		Fields:      []Field{req(str("id", "module id"))},
		Dangerous:   true,
	},
	{
		Name:        "add_module_item",
		Description: "Add an item to a module, linking an existing record or a URL.",
		Fields: []Field{
			str("moduleId", "module id"),
			str("moduleName", "module name, resolved to an id"),
			str("itemType", "assignment, announcement, file, question_bank, url, or header"),
			str("refId", "id of the linked record"),
			str("refTitle", "title of the linked record, resolved to an id"),
			str("title", "display title"),
			str("url", "link for url items"),
		},
		RequireOneOf: [][]string{{"moduleId", "moduleName"}},
	},
	{
		Name:        "remove_module_item",
		Description: "Remove one item from a module.",
		Fields: []Field{
			req(str("moduleId", "module id")),
			req(str("itemId", "module item id")),
		},
	},
	{
		Name:        "create_question_bank",
		Description: "Create a question bank.",
		Fields: []Field{
			req(str("name", "bank name")),
			str("description", "bank description"),
			list("questions", "questions: {type, prompt, options, answer, points}"),
		},
	},
	{
		Name:        "update_question_bank",
		Description: "Rename a bank, replace its questions, or append questions.",
		Fields: []Field{
			req(str("id", "question bank id")),
			str("name", "bank name"),
			str("description", "bank description"),
			list("questions", "replacement question list"),
			list("addQuestions", "questions to append"),
		},
	},
	{
		Name:        "delete_question_bank",
		Description: "Delete a question bank.",
		Fields:      []Field{req(str("id", "question bank id"))},
		Dangerous:   true,
	},
	{
		Name:        "invite_user",
		Description: "Invite someone to the course by email.",
		Fields: []Field{
			req(str("email", "invitee email")),
			str("role", "instructor, ta, student, or observer"),
		},
	},
	{
		Name:        "revoke_invite",
		Description: "Revoke a pending invite.",
		Fields: []Field{
			str("id", "invite id"),
			str("email", "invitee email"),
		},
		RequireOneOf: [][]string{{"id", "email"}},
	},
	{
		Name:        "update_enrollment_role",
		Description: "Change the role of an enrolled user.",
		Fields: []Field{
			str("enrollmentId", "enrollment id"),
			str("email", "user email"),
			req(str("role", "new role")),
		},
		RequireOneOf: [][]string{{"enrollmentId", "email"}},
	},
	{
		Name:         "remove_enrollment",
		Description:  "Remove a user from the course.",
		Fields:       []Field{str("enrollmentId", "enrollment id"), str("email", "user email")},
		RequireOneOf: [][]string{{"enrollmentId", "email"}},
		Dangerous:    true,
	},
	{
		Name:        "set_file_visibility",
		Description: "Hide or show a course file.",
		Fields: []Field{
			str("fileId", "file id"),
			str("fileName", "file name, resolved to an id"),
			flag("hidden", "true hides the file"),
		},
		RequireOneOf: [][]string{{"fileId", "fileName"}},
	},
	{
		Name:        "set_grade",
		Description: "Record a grade for one student on one assignment.",
		Fields: []Field{
			str("assignmentId", "assignment id"),
			str("assignmentTitle", "assignment title, resolved to an id"),
			str("userId", "student user id"),
			str("email", "student email, resolved to a user id"),
			req(num("score", "score")),
			str("feedback", "feedback for the student"),
			flag("released", "visible to the student"),
		},
		RequireOneOf: [][]string{{"assignmentId", "assignmentTitle"}, {"userId", "email"}},
	},
	{
		Name:        "create_group_set",
		Description: "Create a group set with named groups.",
		Fields: []Field{
			req(str("name", "group set name")),
			list("groups", "group names"),
		},
	},
	{
		Name:        ActionPipeline,
		Description: "Several actions confirmed together and applied in order; stops at the first failure.",
		Fields:      []Field{req(list("steps", "ordered actions, each {\"action\": name, ...fields}"))},
	},
	{
		Name:        "create_quiz",
		Description: "Legacy standalone quiz.",
		Deprecated:  true,
		ReplacedBy:  "create_assignment",
	},
	{
		Name:        "update_quiz",
		Description: "Legacy standalone quiz.",
		Deprecated:  true,
		ReplacedBy:  "update_assignment",
	},
	{
		Name:        "delete_quiz",
		Description: "Legacy standalone quiz.",
		Deprecated:  true,
		ReplacedBy:  "delete_assignment",
	},
}
