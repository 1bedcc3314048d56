package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewNotificationTemplate(t *testing.T) {
	org := primitive.NewObjectID()
	env := primitive.NewObjectID()

	tpl := NewNotificationTemplate("welcome", org, env)

	assert.False(t, tpl.ID.IsZero())
	assert.Equal(t, "welcome", tpl.Name)
	assert.True(t, tpl.Active)
	assert.Equal(t, org, tpl.OrganizationID)
	assert.Equal(t, env, tpl.EnvironmentID)
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.NotNil(t, tpl.Steps)
	assert.NotNil(t, tpl.Triggers)
}

func TestNotificationTemplate_Triggers(t *testing.T) {
	tpl := NewNotificationTemplate("welcome", primitive.NewObjectID(), primitive.NewObjectID())
	tpl.AddTrigger("user-signup", "firstName", "lastName")
	tpl.AddTrigger("user-invite")

	assert.Equal(t, []string{"user-signup", "user-invite"}, tpl.TriggerIdentifiers())
	assert.True(t, tpl.HasTrigger("user-invite"))
	assert.False(t, tpl.HasTrigger("password-reset"))
	assert.Equal(t, TriggerTypeEvent, tpl.Triggers[0].Type)
	assert.Len(t, tpl.Triggers[0].Variables, 2)
	assert.Equal(t, "firstName", tpl.Triggers[0].Variables[0].Name)
}

func TestNotificationTemplate_StepTemplateIDs(t *testing.T) {
	tpl := NewNotificationTemplate("digest", primitive.NewObjectID(), primitive.NewObjectID())
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	tpl.AddStep(a)
	tpl.AddStep(b)
	tpl.AddStep(a)
	tpl.Steps = append(tpl.Steps, NotificationStep{})

	assert.Equal(t, []primitive.ObjectID{a, b}, tpl.StepTemplateIDs())
}

func TestNotificationTemplate_BSONLayout(t *testing.T) {
	tpl := NewNotificationTemplate("welcome", primitive.NewObjectID(), primitive.NewObjectID())
	tpl.AddTrigger("user-signup")
	tpl.NotificationGroup = &NotificationGroup{Name: "General"}

	raw, err := bson.Marshal(tpl)
	assert.NoError(t, err)

	var doc bson.M
	assert.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Contains(t, doc, "_environmentId")
	assert.Contains(t, doc, "_organizationId")
	assert.NotContains(t, doc, "notificationGroup")
	assert.NotContains(t, doc, "deleted")

	triggers, ok := doc["triggers"].(bson.A)
	assert.True(t, ok)
	assert.Equal(t, "user-signup", triggers[0].(bson.M)["identifier"])
}

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()

	parsed, err := ParseID(oid.Hex())
	assert.NoError(t, err)
	assert.Equal(t, oid, parsed)

	_, err = ParseID("not-an-id")
	assert.Error(t, err)
}
