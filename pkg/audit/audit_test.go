package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/formflow/pkg/channels/gochannel"
	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() (Event, *models.Node) {
	run := models.NewExecutionContext("exec-1", &models.RunRequest{
		UserID:        "u1",
		FormVersionID: "fv1",
		SubmissionID:  "s1",
		FormData:      map[string]any{"name": "Acme"},
	})

	node := &models.Node{
		NodeID:           "cu",
		Type:             models.NodeTypeCreateUpdate,
		SalesforceObject: "Account",
		FieldMappings:    []models.FieldMapping{{FormFieldID: "name", SalesforceField: "Name"}},
	}

	result := models.NodeResult{
		Status:    models.NodeStatusSuccess,
		Success:   true,
		Message:   "Created Account record",
		Data:      map[string]any{"action": "created", "recordId": "001", "ignored": "x"},
		Timestamp: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	return NewEvent("evt-1", run, node, result), node
}

func TestNewEvent(t *testing.T) {
	event, _ := sampleEvent()

	assert.Equal(t, "Mapping", event.Type)
	assert.Equal(t, "CreateUpdate", event.SubType)
	assert.Equal(t, StatusSuccess, event.Status)
	assert.Equal(t, map[string]any{"name": "Acme"}, event.Input["formValues"])
	assert.Equal(t, "Account", event.Input["object"])
	assert.Equal(t, "001", event.Output["recordId"])
	assert.NotContains(t, event.Output, "ignored")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSkipped, StatusOf(models.NodeResult{Status: models.NodeStatusSkipped, Error: "x"}))
	assert.Equal(t, StatusSuccess, StatusOf(models.NodeResult{Status: models.NodeStatusPartial, Error: "1 of 2 failed"}))
	assert.Equal(t, StatusFailed, StatusOf(models.NodeResult{Status: models.NodeStatusFailed}))
	assert.Equal(t, StatusSuccess, StatusOf(models.NodeResult{Status: models.NodeStatusCompleted}))
}

func TestViews_UnknownType(t *testing.T) {
	node := &models.Node{NodeID: "x", Type: "Custom"}

	assert.Equal(t, map[string]any{"type": models.NodeType("Custom")}, InputView(node, nil))
	assert.Equal(t, map[string]any{"status": models.NodeStatusFailed}, OutputView(node.Type, models.NodeResult{Status: models.NodeStatusFailed}))
}

func TestWatermillSink(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := sub.Subscribe(ctx, DefaultTopic)
	require.NoError(t, err)

	event, _ := sampleEvent()
	NewWatermillSink(pub, "", slog.Default()).Append(ctx, event)

	select {
	case msg := <-messages:
		msg.Ack()

		var got Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "evt-1", msg.UUID)
		assert.Equal(t, "Success", msg.Metadata.Get("status"))
		assert.Equal(t, "cu", got.NodeID)
		assert.Equal(t, "exec-1", got.ExecutionID)
	case <-ctx.Done():
		t.Fatal("audit event was not published")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer

	event, _ := sampleEvent()
	event.Status = StatusFailed
	NewLogSink(slog.New(slog.NewTextHandler(&buf, nil))).Append(context.Background(), event)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "node_id=cu")
}
