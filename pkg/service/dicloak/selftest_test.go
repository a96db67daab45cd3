package dicloak_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestSelfTestHealthy(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/env/list":
			writeEnvelope(w, 0, `{"list":[]}`)
		case "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	report := client.SelfTest(context.Background())
	gt.True(t, report.Healthy)
	gt.Equal(t, 3, len(report.Checks))
	gt.True(t, report.Checks[0].OK)
	gt.False(t, report.Checks[1].OK)
	gt.Equal(t, types.TeamID("team-1"), report.TeamID)
	// Healthy sessions carry no raw diagnostics
	gt.Equal(t, 0, len(report.Diagnostics))
}

func TestSelfTestUnhealthyAttachesDiagnostics(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	report := client.SelfTest(context.Background())
	gt.False(t, report.Healthy)
	gt.Equal(t, 3, len(report.Checks))
	gt.A(t, report.Diagnostics).Longer(0)

	// The raw probe reaches the service and flags the key as the likely
	// problem on 401
	found := false
	for _, d := range report.Diagnostics {
		if d.Status == http.StatusUnauthorized && d.Note != "" {
			found = true
		}
	}
	gt.True(t, found)
}
