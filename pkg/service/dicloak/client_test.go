package dicloak_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/service/dicloak"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// fastIntervals keeps orchestration waits out of test runtime
func fastIntervals() dicloak.Intervals {
	return dicloak.Intervals{
		PageFetch:      time.Millisecond,
		PageRetry:      time.Millisecond,
		WriteVerify:    time.Millisecond,
		AllGroupSwitch: time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.Handler, opts ...dicloak.Option) *dicloak.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]dicloak.Option{dicloak.WithIntervals(fastIntervals())}, opts...)
	return dicloak.New(srv.URL, "test-key", opts...)
}

func writeEnvelope(w http.ResponseWriter, code int, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"code":%d,"msg":"","data":%s}`, code, data)
}

func TestRequestSendsAPIKey(t *testing.T) {
	var gotKey, gotContentType string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotContentType = r.Header.Get("Content-Type")
		writeEnvelope(w, 0, `{"list":[{"id":"r1","name":"Admin"}]}`)
	}))

	roles, err := client.ListRoles(context.Background())
	gt.NoError(t, err).Required()
	gt.Equal(t, "test-key", gotKey)
	gt.Equal(t, "application/json", gotContentType)
	gt.Equal(t, 1, len(roles))
	gt.Equal(t, "Admin", roles[0].Name)
}

func TestRequestNonZeroCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 10001, `null`)
	}))

	_, err := client.ListRoles(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagAPIError))
}

func TestRequestNonJSONBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))

	_, err := client.ListRoles(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagUnexpectedResponse))
}

func TestRequestStatusTags(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		hasClass func(error) bool
	}{
		{"bad request", http.StatusBadRequest, func(err error) bool {
			return goerr.HasTag(err, model.ErrTagValidation)
		}},
		{"not found", http.StatusNotFound, func(err error) bool {
			return goerr.HasTag(err, model.ErrTagNotFound)
		}},
		{"forbidden", http.StatusForbidden, func(err error) bool {
			return goerr.HasTag(err, model.ErrTagPermission)
		}},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			// No extra class tag beyond the status tag itself
			return !goerr.HasTag(err, model.ErrTagValidation) &&
				!goerr.HasTag(err, model.ErrTagNotFound) &&
				!goerr.HasTag(err, model.ErrTagPermission)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := tc.status
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			_, err := client.ListRoles(context.Background())
			gt.Error(t, err)
			gt.True(t, goerr.HasTag(err, model.ErrTagHTTPStatus))
			gt.True(t, tc.hasClass(err))
		})
	}
}

func TestRequestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := dicloak.New(url, "test-key", dicloak.WithIntervals(fastIntervals()))
	_, err := client.ListRoles(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagNetwork))
}

func TestRequestContextCancelled(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.ListRoles(ctx)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagNetwork))
}
