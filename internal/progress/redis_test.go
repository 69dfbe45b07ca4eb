package progress

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwell/siteaudit/internal/domain"
)

func TestChannelNaming(t *testing.T) {
	p := NewRedisPublisher(redis.NewClient(&redis.Options{}), "myprefix")
	assert.Equal(t, "myprefix:progress:audit-1", p.Channel("audit-1"))

	defaulted := NewRedisPublisher(redis.NewClient(&redis.Options{}), "")
	assert.Equal(t, "siteaudit:progress:audit-1", defaulted.Channel("audit-1"))
}

func TestUpdateJSONShape(t *testing.T) {
	u := Update{
		AuditID:  "audit-1",
		Status:   domain.AuditStatusRunning,
		Stage:    StageCrawling,
		Progress: 25,
		Message:  "crawled 5 of 20 pages",
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "audit-1", decoded["audit_id"])
	assert.Equal(t, "crawling", decoded["stage"])
	assert.Equal(t, float64(25), decoded["progress"])
}

func TestCompletionJSONOmitsEmptyFields(t *testing.T) {
	c := Completion{
		AuditID: "audit-2",
		Status:  domain.AuditStatusFailed,
		Error:   "audit timed out",
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "audit timed out", decoded["error"])
	assert.NotContains(t, decoded, "total_score")
	assert.NotContains(t, decoded, "scores")
}

func TestNopPublisher(t *testing.T) {
	p := NewNop()
	assert.NoError(t, p.PublishUpdate(context.Background(), Update{AuditID: "a"}))
	assert.NoError(t, p.PublishCompletion(context.Background(), Completion{AuditID: "a"}))
}
