// Package models defines domain models for the database layer.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	NotificationTemplateCollection = "notificationtemplates"
	MessageTemplateCollection      = "messagetemplates"
	NotificationGroupCollection    = "notificationgroups"
)

// TriggerTypeEvent is the only trigger type currently stored.
const TriggerTypeEvent = "event"

// SoftDeleteFields holds the logical deletion marker. The mongodb soft-delete
// plugin owns these fields; nothing else should write them.
type SoftDeleteFields struct {
	Deleted   bool                `json:"deleted,omitempty" bson:"deleted,omitempty"`
	DeletedAt *time.Time          `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	DeletedBy *primitive.ObjectID `json:"deletedBy,omitempty" bson:"deletedBy,omitempty"`
}

// NotificationTemplate is a workflow definition: triggers that start it and
// the ordered steps it sends.
type NotificationTemplate struct {
	ID                  primitive.ObjectID    `json:"_id" bson:"_id,omitempty"`
	Name                string                `json:"name" bson:"name"`
	Description         string                `json:"description,omitempty" bson:"description,omitempty"`
	Active              bool                  `json:"active" bson:"active"`
	Draft               bool                  `json:"draft" bson:"draft"`
	Critical            bool                  `json:"critical" bson:"critical"`
	Tags                []string              `json:"tags,omitempty" bson:"tags,omitempty"`
	Steps               []NotificationStep    `json:"steps" bson:"steps"`
	Triggers            []NotificationTrigger `json:"triggers" bson:"triggers"`
	NotificationGroupID primitive.ObjectID    `json:"_notificationGroupId" bson:"_notificationGroupId,omitempty"`
	EnvironmentID       primitive.ObjectID    `json:"_environmentId" bson:"_environmentId"`
	OrganizationID      primitive.ObjectID    `json:"_organizationId" bson:"_organizationId"`
	CreatorID           primitive.ObjectID    `json:"_creatorId,omitempty" bson:"_creatorId,omitempty"`
	CreatedAt           time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt" bson:"updatedAt"`

	SoftDeleteFields `bson:",inline"`

	// NotificationGroup is resolved from NotificationGroupID on list reads.
	NotificationGroup *NotificationGroup `json:"notificationGroup,omitempty" bson:"-"`
}

// NotificationStep references the message template sent at this position.
type NotificationStep struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TemplateID primitive.ObjectID `json:"_templateId" bson:"_templateId"`
	Active     bool               `json:"active" bson:"active"`

	// Template is resolved from TemplateID on single-record reads.
	Template *MessageTemplate `json:"template,omitempty" bson:"-"`
}

// NotificationTrigger is an entry point into a template.
type NotificationTrigger struct {
	Type                string            `json:"type" bson:"type"`
	Identifier          string            `json:"identifier" bson:"identifier"`
	Variables           []TriggerVariable `json:"variables" bson:"variables"`
	SubscriberVariables []TriggerVariable `json:"subscriberVariables,omitempty" bson:"subscriberVariables,omitempty"`
}

// TriggerVariable names a payload variable the trigger expects.
type TriggerVariable struct {
	Name string `json:"name" bson:"name"`
}

// MessageTemplate is the content sent by a step.
type MessageTemplate struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Type           string             `json:"type" bson:"type"`
	Name           string             `json:"name,omitempty" bson:"name,omitempty"`
	Subject        string             `json:"subject,omitempty" bson:"subject,omitempty"`
	Content        string             `json:"content" bson:"content"`
	EnvironmentID  primitive.ObjectID `json:"_environmentId" bson:"_environmentId"`
	OrganizationID primitive.ObjectID `json:"_organizationId" bson:"_organizationId"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`

	SoftDeleteFields `bson:",inline"`
}

// NotificationGroup groups templates for display.
type NotificationGroup struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	EnvironmentID  primitive.ObjectID `json:"_environmentId" bson:"_environmentId"`
	OrganizationID primitive.ObjectID `json:"_organizationId" bson:"_organizationId"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ParseID parses a 24-character hex ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

// NewNotificationTemplate creates an active template scoped to the given tenant.
func NewNotificationTemplate(name string, organizationID, environmentID primitive.ObjectID) *NotificationTemplate {
	now := time.Now().UTC()
	return &NotificationTemplate{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Active:         true,
		Steps:          []NotificationStep{},
		Triggers:       []NotificationTrigger{},
		EnvironmentID:  environmentID,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddTrigger appends an event trigger with the given identifier.
func (t *NotificationTemplate) AddTrigger(identifier string, variables ...string) {
	vars := make([]TriggerVariable, 0, len(variables))
	for _, v := range variables {
		vars = append(vars, TriggerVariable{Name: v})
	}
	t.Triggers = append(t.Triggers, NotificationTrigger{
		Type:       TriggerTypeEvent,
		Identifier: identifier,
		Variables:  vars,
	})
}

// AddStep appends an active step sending the given message template.
func (t *NotificationTemplate) AddStep(templateID primitive.ObjectID) {
	t.Steps = append(t.Steps, NotificationStep{
		ID:         primitive.NewObjectID(),
		TemplateID: templateID,
		Active:     true,
	})
}

// TriggerIdentifiers returns the identifiers of all triggers in order.
func (t *NotificationTemplate) TriggerIdentifiers() []string {
	ids := make([]string, 0, len(t.Triggers))
	for _, tr := range t.Triggers {
		ids = append(ids, tr.Identifier)
	}
	return ids
}

// HasTrigger reports whether any trigger uses identifier.
func (t *NotificationTemplate) HasTrigger(identifier string) bool {
	for _, tr := range t.Triggers {
		if tr.Identifier == identifier {
			return true
		}
	}
	return false
}

// StepTemplateIDs returns the distinct message template ids referenced by steps.
func (t *NotificationTemplate) StepTemplateIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(t.Steps))
	ids := make([]primitive.ObjectID, 0, len(t.Steps))
	for _, s := range t.Steps {
		if s.TemplateID.IsZero() {
			continue
		}
		if _, ok := seen[s.TemplateID]; ok {
			continue
		}
		seen[s.TemplateID] = struct{}{}
		ids = append(ids, s.TemplateID)
	}
	return ids
}

// NewMessageTemplate creates a message template scoped to the given tenant.
func NewMessageTemplate(channel, content string, organizationID, environmentID primitive.ObjectID) *MessageTemplate {
	now := time.Now().UTC()
	return &MessageTemplate{
		ID:             primitive.NewObjectID(),
		Type:           channel,
		Content:        content,
		EnvironmentID:  environmentID,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewNotificationGroup creates a notification group scoped to the given tenant.
func NewNotificationGroup(name string, organizationID, environmentID primitive.ObjectID) *NotificationGroup {
	now := time.Now().UTC()
	return &NotificationGroup{
		ID:             primitive.NewObjectID(),
		Name:           name,
		EnvironmentID:  environmentID,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
