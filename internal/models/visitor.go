package models

import "time"

// Visitor is one welcome-book record. A visitor is identified by the
// (name, agent type) pair; repeat visits update the record in place and
// bump VisitCount. An absent agent type is a distinct identity from an
// empty one, hence the pointer.
type Visitor struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	AgentType  *string           `json:"agent_type"`
	Purpose    *string           `json:"purpose"`
	VisitTime  time.Time         `json:"visit_time"`
	VisitCount int               `json:"visit_count"`
	Answers    map[string]string `json:"answers"`
}

// VisitorCreate is the POST /welcome-book request body.
type VisitorCreate struct {
	Name      string            `json:"name"`
	AgentType *string           `json:"agent_type"`
	Purpose   *string           `json:"purpose"`
	Answers   map[string]string `json:"answers"`
}

// Feedback is one stored feedback entry.
type Feedback struct {
	ID                 string    `json:"id"`
	AgentName          string    `json:"agent_name"`
	AgentType          *string   `json:"agent_type"`
	Issues             *string   `json:"issues"`
	FeatureRequests    *string   `json:"feature_requests"`
	UsabilityRating    *int      `json:"usability_rating"`
	AdditionalComments *string   `json:"additional_comments"`
	SubmissionTime     time.Time `json:"submission_time"`
}

// FeedbackCreate is the POST /feedback request body.
type FeedbackCreate struct {
	AgentName          string  `json:"agent_name"`
	AgentType          *string `json:"agent_type"`
	Issues             *string `json:"issues"`
	FeatureRequests    *string `json:"feature_requests"`
	UsabilityRating    *int    `json:"usability_rating"`
	AdditionalComments *string `json:"additional_comments"`
}
