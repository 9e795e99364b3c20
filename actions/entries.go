package actions

import (
	"github.com/tailored-agentic-units/course-agent/core/course"
)

var table = map[string]Entry{
	"create_assignment": {
		Aliases:  assignmentAliases,
		Numbers:  assignmentNumbers,
		Bools:    assignmentBools,
		Times:    assignmentTimes,
		Rewrite:  rewritePublish,
		Defaults: assignmentDefaults,
		Check:    assignmentRefs,
		Resolve:  resolveAssignmentRefs,
		Publish:  assignmentPublish,
		Preview:  preview[course.Assignment],
		Execute:  createAssignment,
	},
	"update_assignment": {
		Aliases: aliases(assignmentAliases, map[string][]string{"id": {"assignmentId"}}),
		Numbers: assignmentNumbers,
		Bools:   assignmentBools,
		Times:   assignmentTimes,
		Rewrite: rewritePublish,
		Check:   allOf(exists("assignment", "id", course.FindAssignment), assignmentRefs),
		Resolve: resolveAssignmentRefs,
		Publish: assignmentPublish,
		Execute: updateAssignment,
	},
	"delete_assignment": {
		Aliases: map[string][]string{"id": {"assignmentId"}},
		Check:   exists("assignment", "id", course.FindAssignment),
		Execute: deleteAssignment,
	},
	"publish_assignment": {
		Aliases: map[string][]string{"id": {"assignmentId"}},
		Check:   exists("assignment", "id", course.FindAssignment),
		Publish: publishExistingAssignment,
		Execute: publishAssignment,
	},

	"create_announcement": {
		Aliases:  announcementAliases,
		Bools:    announcementBools,
		Rewrite:  rewriteVisibility,
		Defaults: announcementDefaults,
		Publish:  announcementPublish,
		Preview:  preview[course.Announcement],
		Execute:  createAnnouncement,
	},
	"update_announcement": {
		Aliases: aliases(announcementAliases, map[string][]string{"id": {"announcementId"}}),
		Bools:   announcementBools,
		Rewrite: rewriteVisibility,
		Check:   exists("announcement", "id", course.FindAnnouncement),
		Publish: announcementPublish,
		Execute: updateAnnouncement,
	},
	"delete_announcement": {
		Aliases: map[string][]string{"id": {"announcementId"}},
		Check:   exists("announcement", "id", course.FindAnnouncement),
		Execute: deleteAnnouncement,
	},
	"publish_announcement": {
		Aliases: map[string][]string{"id": {"announcementId"}},
		Check:   exists("announcement", "id", course.FindAnnouncement),
		Publish: publishExistingAnnouncement,
		Execute: publishAnnouncement,
	},

	"create_module": {
		Aliases:  moduleAliases,
		Numbers:  []string{"position"},
		Bools:    []string{"hidden"},
		Defaults: moduleDefaults,
		Preview:  preview[course.Module],
		Execute:  createModule,
	},
	"update_module": {
		Aliases: aliases(moduleAliases, map[string][]string{"id": {"moduleId"}}),
		Numbers: []string{"position"},
		Bools:   []string{"hidden"},
		Check:   exists("module", "id", course.FindModule),
		Execute: updateModule,
	},
	"delete_module": {
		Aliases: map[string][]string{"id": {"moduleId"}},
		Check:   exists("module", "id", course.FindModule),
		Execute: deleteModule,
	},
	"add_module_item": {
		Aliases:  moduleItemAliases,
		Rewrite:  rewriteModuleItem,
		Defaults: moduleItemDefaults,
		Check:    checkModuleItem,
		Resolve:  resolveModuleItem,
		Execute:  addModuleItem,
	},
	"remove_module_item": {
		Aliases: map[string][]string{"itemId": {"id", "moduleItemId"}},
		Check:   checkModuleItemExists,
		Execute: removeModuleItem,
	},

	"create_question_bank": {
		Aliases:  bankAliases,
		Rewrite:  rewriteQuestions,
		Defaults: bankDefaults,
		Preview:  previewBank,
		Execute:  createBank,
	},
	"update_question_bank": {
		Aliases:  aliases(bankAliases, map[string][]string{"id": {"bankId", "questionBankId"}}),
		Rewrite:  rewriteQuestions,
		Defaults: bankUpdateDefaults,
		Check:    exists("question bank", "id", course.FindQuestionBank),
		Execute:  updateBank,
	},
	"delete_question_bank": {
		Aliases: map[string][]string{"id": {"bankId", "questionBankId"}},
		Check:   exists("question bank", "id", course.FindQuestionBank),
		Execute: deleteBank,
	},

	"invite_user": {
		Aliases:  map[string][]string{"email": {"userEmail", "emailAddress"}, "role": {"inviteRole"}},
		Rewrite:  rewritePerson,
		Defaults: inviteDefaults,
		Check:    allOf(checkRole, checkInvitee),
		Preview:  previewInvite,
		Execute:  invite,
	},
	"revoke_invite": {
		Aliases: map[string][]string{"id": {"inviteId"}, "email": {"userEmail", "emailAddress"}},
		Rewrite: rewritePerson,
		Check:   checkInvite,
		Resolve: resolveInvite,
		Execute: revokeInvite,
	},
	"update_enrollment_role": {
		Aliases: enrollmentAliases,
		Rewrite: rewritePerson,
		Check:   allOf(checkRole, checkEnrollment),
		Resolve: resolveEnrollment,
		Execute: updateEnrollmentRole,
	},
	"remove_enrollment": {
		Aliases: enrollmentAliases,
		Rewrite: rewritePerson,
		Check:   checkEnrollment,
		Resolve: resolveEnrollment,
		Execute: removeEnrollment,
	},

	"set_file_visibility": {
		Aliases:  fileAliases,
		Bools:    []string{"hidden", "visible"},
		Rewrite:  rewriteFileVisibility,
		Defaults: fileDefaults,
		Check:    checkFile,
		Resolve:  resolveFile,
		Execute:  setFileVisibility,
	},
	"set_grade": {
		Aliases:  gradeAliases,
		Numbers:  []string{"score"},
		Bools:    []string{"released"},
		Rewrite:  func(f Fields) { lower(f, "email") },
		Defaults: gradeDefaults,
		Check:    checkGrade,
		Resolve:  resolveGrade,
		Execute:  setGrade,
	},
	"create_group_set": {
		Aliases:  groupSetAliases,
		Rewrite:  rewriteGroups,
		Defaults: groupSetDefaults,
		Preview:  previewGroupSet,
		Execute:  createGroupSet,
	},
}
