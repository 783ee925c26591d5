package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminJobTriggers(t *testing.T) {
	f := newRouterFixture(t)
	f.pool.n = 4
	f.assigner.n = 3
	f.sweeper.n = 2

	tests := []struct {
		path string
		job  string
		want int64
	}{
		{path: "/api/admin/jobs/pool", job: "pool_generation", want: 4},
		{path: "/api/admin/jobs/assign", job: "task_assignment", want: 3},
		{path: "/api/admin/jobs/sweep", job: "expiry_sweep", want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.job, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp JobRunResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.job, resp.Job)
			assert.Equal(t, tc.want, resp.Affected)
		})
	}
}

func TestAdminJobFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.pool.err = errors.New("lock registry unavailable")

	rec := f.do(t, http.MethodPost, "/api/admin/jobs/pool", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp["error"], "lock registry", "internal detail must not leak")
}
