package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/agent-swarm/internal/domain"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestProvider_RecordsCounters(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, "swarm-test")
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(ctx) }()

	r := p.Recorder()
	r.RecordTaskOp(ctx, "create", domain.StatusOffered)
	r.RecordTaskOp(ctx, "create", domain.StatusOffered)
	r.RecordClaim(ctx, false)
	r.RecordScheduleFire(ctx, "fired")
	r.RecordRoute(ctx, domain.SourceSlack, "thread_follow_up")
	r.RecordLoopSignal(ctx, domain.SeverityCritical)

	body := scrape(t, p)
	assert.Contains(t, body, "swarm_task_operations_total")
	assert.Contains(t, body, `operation="create"`)
	assert.Contains(t, body, `outcome="lost"`)
	assert.Contains(t, body, `branch="thread_follow_up"`)
	assert.Contains(t, body, `severity="critical"`)
}

func TestProvider_Isolated(t *testing.T) {
	ctx := context.Background()
	a, err := NewProvider(ctx, "")
	require.NoError(t, err)
	b, err := NewProvider(ctx, "")
	require.NoError(t, err)

	a.Recorder().RecordScheduleFire(ctx, "disabled")

	assert.Contains(t, scrape(t, a), `outcome="disabled"`)
	assert.NotContains(t, scrape(t, b), `outcome="disabled"`)
	assert.NotNil(t, a.MeterProvider())
}
