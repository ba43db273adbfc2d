package services

import (
	"strings"
)

// Action names a user-triggered operation for toast selection.
type Action string

const (
	ActionLoad                 Action = "load"
	ActionCreatePost           Action = "create_post"
	ActionEditPost             Action = "edit_post"
	ActionDeletePost           Action = "delete_post"
	ActionModeratePost         Action = "moderate_post"
	ActionSaveProfile          Action = "save_profile"
	ActionSetLanguage          Action = "set_language"
	ActionRecordMood           Action = "record_mood"
	ActionSubmitQuiz           Action = "submit_quiz"
	ActionRequestSession       Action = "request_session"
	ActionSendMessage          Action = "send_message"
	ActionReportArea           Action = "report_area"
	ActionUpdateCampaigns      Action = "update_campaigns"
	ActionAddInstitution       Action = "add_institution"
	ActionUpdateInstitution    Action = "update_institution"
	ActionAddAreaMonitoring    Action = "add_area_monitoring"
	ActionUpdateAreaMonitoring Action = "update_area_monitoring"
	ActionAddCamp              Action = "add_camp"
	ActionUpdateCamp           Action = "update_camp"
	ActionAssignRole           Action = "assign_role"
	ActionSetAppURL            Action = "set_app_url"
)

type toastRule struct {
	fallback string
	// postVerb enables the permission/not-found wording for post actions.
	postVerb string
	// passthrough shows the actor's own message when there is one.
	passthrough bool
}

var toastRules = map[Action]toastRule{
	ActionLoad:                 {fallback: "Failed to load data. Please try again."},
	ActionCreatePost:           {fallback: "Failed to create post. Please try again."},
	ActionEditPost:             {fallback: "Failed to edit post. Please try again.", postVerb: "edit"},
	ActionDeletePost:           {fallback: "Failed to delete post. Please try again.", postVerb: "delete"},
	ActionModeratePost:         {fallback: "Failed to moderate post. Please try again.", postVerb: "moderate"},
	ActionSaveProfile:          {fallback: "Failed to create profile. Please try again."},
	ActionSetLanguage:          {fallback: "Failed to update language preference. Please try again."},
	ActionRecordMood:           {fallback: "Failed to record mood. Please try again."},
	ActionSubmitQuiz:           {fallback: "Failed to submit quiz. Please try again."},
	ActionRequestSession:       {fallback: "Failed to submit request. Please try again."},
	ActionSendMessage:          {fallback: "Failed to send message", passthrough: true},
	ActionReportArea:           {fallback: "Failed to report area", passthrough: true},
	ActionUpdateCampaigns:      {fallback: "Failed to update campaigns", passthrough: true},
	ActionAddInstitution:       {fallback: "Failed to add institution", passthrough: true},
	ActionUpdateInstitution:    {fallback: "Failed to update institution", passthrough: true},
	ActionAddAreaMonitoring:    {fallback: "Failed to add area monitoring", passthrough: true},
	ActionUpdateAreaMonitoring: {fallback: "Failed to update area monitoring", passthrough: true},
	ActionAddCamp:              {fallback: "Failed to add camp", passthrough: true},
	ActionUpdateCamp:           {fallback: "Failed to update camp", passthrough: true},
	ActionAssignRole:           {fallback: "Failed to assign role", passthrough: true},
	ActionSetAppURL:            {fallback: "Failed to update app URL", passthrough: true},
}

// Toast picks the message shown to the user when action fails with err.
// Validation and gating errors already carry user-facing text; for actor
// rejections the text only selects the wording, it never changes control flow.
func Toast(action Action, err error) string {
	if err == nil {
		return ""
	}
	if se, ok := AsServiceError(err); ok && se.Code != ErrorBadGateway {
		return se.Message
	}
	rule, ok := toastRules[action]
	if !ok {
		rule = toastRules[ActionLoad]
	}
	msg := err.Error()
	if rule.postVerb != "" {
		switch {
		case strings.Contains(msg, "Unauthorized") || strings.Contains(msg, "Not Authorized"):
			return "You do not have permission to " + rule.postVerb + " this post"
		case strings.Contains(msg, "Post not found"):
			return "Post not found"
		}
	}
	if rule.passthrough && msg != "" {
		return msg
	}
	return rule.fallback
}
