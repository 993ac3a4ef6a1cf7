package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/client-platform/internal/api"
	"github.com/atelierhq/client-platform/internal/config"
	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   24 * time.Hour,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testConfig(), logger.NewNop(), opts...)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url, token string, dest any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp
}

func login(t *testing.T, baseURL string) *model.LoginResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/auth", "", &model.LoginRequest{
		Email:    "studio@atelier.test",
		Password: "atelier",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	return &out
}

func TestLoginIssuesWorkingSession(t *testing.T) {
	_, ts := newTestServer(t)

	session := login(t, ts.URL)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	assert.False(t, session.RequiresTwoFactor)

	var accounts model.ListAccountsResponse
	resp := getJSON(t, ts.URL+"/accounts", session.AccessToken, &accounts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, accounts.Accounts, 2)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth", "", &model.LoginRequest{
		Email:    "studio@atelier.test",
		Password: "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	_, ts := newTestServer(t)

	resp := getJSON(t, ts.URL+"/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	_, ts := newTestServer(t)
	session := login(t, ts.URL)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/auth", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.RefreshToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed model.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refreshed))
	require.NotEmpty(t, refreshed.AccessToken)

	var dash model.DashboardResponse
	ok := getJSON(t, ts.URL+"/dashboard", refreshed.AccessToken, &dash)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	// An access token presented to the refresh endpoint must not mint.
	_, ts := newTestServer(t)
	session := login(t, ts.URL)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/auth", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTwoFactorFlow(t *testing.T) {
	s, ts := newTestServer(t, WithTwoFactor())

	resp := postJSON(t, ts.URL+"/auth", "", &model.LoginRequest{
		Email:    "studio@atelier.test",
		Password: "atelier",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var challenge model.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&challenge))
	require.True(t, challenge.RequiresTwoFactor)
	assert.Empty(t, challenge.AccessToken, "no tokens before verification")

	s.state.mu.Lock()
	code := s.state.twoFactor["studio@atelier.test"]
	s.state.mu.Unlock()
	require.NotEmpty(t, code)

	bad := postJSON(t, ts.URL+"/auth/verify", "", &model.VerifyTwoFactorRequest{
		Email: "studio@atelier.test",
		Code:  "000000",
	})
	bad.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)

	good := postJSON(t, ts.URL+"/auth/verify", "", &model.VerifyTwoFactorRequest{
		Email: "studio@atelier.test",
		Code:  code,
	})
	defer good.Body.Close()
	require.Equal(t, http.StatusOK, good.StatusCode)
	var session model.LoginResponse
	require.NoError(t, json.NewDecoder(good.Body).Decode(&session))
	assert.NotEmpty(t, session.AccessToken)
}

func TestMessagesAfterFilter(t *testing.T) {
	s, ts := newTestServer(t)
	session := login(t, ts.URL)
	accountID := s.state.accounts[0].ID

	var full model.ListMessagesResponse
	resp := getJSON(t, ts.URL+"/messages?accountId="+accountID, session.AccessToken, &full)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, full.Messages)
	cursor := full.Messages[len(full.Messages)-1].CreatedAt

	sent := postJSON(t, ts.URL+"/messages", session.AccessToken, &model.SendMessageRequest{
		AccountID:     accountID,
		Content:       "Navy palette mockups attached.",
		CorrelationID: "corr-1",
	})
	defer sent.Body.Close()
	require.Equal(t, http.StatusCreated, sent.StatusCode)
	var created model.SendMessageResponse
	require.NoError(t, json.NewDecoder(sent.Body).Decode(&created))
	assert.Equal(t, "corr-1", created.Message.CorrelationID, "correlation id echoed back")

	var incremental model.ListMessagesResponse
	url := ts.URL + "/messages?accountId=" + accountID + "&after=" + cursor.Format(time.RFC3339Nano)
	resp = getJSON(t, url, session.AccessToken, &incremental)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, incremental.Messages, 1, "strictly-after filter excludes the cursor message")
	assert.Equal(t, created.Message.ID, incremental.Messages[0].ID)
}

func TestMessagesValidation(t *testing.T) {
	s, ts := newTestServer(t)
	session := login(t, ts.URL)
	accountID := s.state.accounts[0].ID

	resp := getJSON(t, ts.URL+"/messages?accountId=unknown", session.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/messages?accountId="+accountID+"&after=yesterday", session.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	empty := postJSON(t, ts.URL+"/messages", session.AccessToken, &model.SendMessageRequest{
		AccountID: accountID,
		Content:   "   ",
	})
	empty.Body.Close()
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
}

func TestTypingBeaconWindow(t *testing.T) {
	s, ts := newTestServer(t)
	session := login(t, ts.URL)
	accountID := s.state.accounts[0].ID

	var before model.TypingResponse
	getJSON(t, ts.URL+"/messages/typing?accountId="+accountID, session.AccessToken, &before)
	assert.False(t, before.Typing)

	beacon := postJSON(t, ts.URL+"/messages/typing?accountId="+accountID, session.AccessToken, nil)
	beacon.Body.Close()
	require.Equal(t, http.StatusOK, beacon.StatusCode)

	var after model.TypingResponse
	getJSON(t, ts.URL+"/messages/typing?accountId="+accountID, session.AccessToken, &after)
	assert.True(t, after.Typing, "beacon holds the indicator inside the window")

	missing := postJSON(t, ts.URL+"/messages/typing?accountId=unknown", session.AccessToken, nil)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	session := login(t, ts.URL)

	created := postJSON(t, ts.URL+"/tasks/", session.AccessToken, &model.CreateTaskRequest{
		Title:    "Send revised contract",
		DueAt:    time.Now().Add(48 * time.Hour),
		Reminder: true,
	})
	defer created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var task model.TaskResponse
	require.NoError(t, json.NewDecoder(created.Body).Decode(&task))
	require.NotEmpty(t, task.Task.ID)

	done := true
	raw, _ := json.Marshal(&model.UpdateTaskRequest{Completed: &done})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/tasks/"+task.Task.ID, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.TaskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.True(t, updated.Task.Completed)
	assert.NotNil(t, updated.Task.UpdatedAt)

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/tasks/"+task.Task.ID, nil)
	require.NoError(t, err)
	del.Header.Set("Authorization", "Bearer "+session.AccessToken)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	again, err := http.DefaultClient.Do(del.Clone(context.Background()))
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

// TestConcurrentMessageTraffic hammers the message endpoints from
// several goroutines. Run with -race: every state read, account lookups
// included, must hold the state lock.
func TestConcurrentMessageTraffic(t *testing.T) {
	s, ts := newTestServer(t)
	session := login(t, ts.URL)
	accountID := s.state.accounts[0].ID

	do := func(method, url string, body []byte) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequest(method, url, reader)
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}
	sendBody, err := json.Marshal(&model.SendMessageRequest{
		AccountID: accountID,
		Content:   "concurrent hello",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				do(http.MethodPost, ts.URL+"/messages", sendBody)
				do(http.MethodGet, ts.URL+"/messages?accountId="+accountID, nil)
				do(http.MethodPost, ts.URL+"/messages/typing?accountId="+accountID, nil)
			}
		}()
	}
	wg.Wait()

	var final model.ListMessagesResponse
	resp := getJSON(t, ts.URL+"/messages?accountId="+accountID, session.AccessToken, &final)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, final.Messages, 41, "seed message plus every concurrent send")
}

// TestClientAgainstDevServer drives the real API client end to end.
func TestClientAgainstDevServer(t *testing.T) {
	s, ts := newTestServer(t)

	db, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	tokens := store.NewTokenStore(db)

	client := api.New(api.Config{BaseURL: ts.URL}, tokens, nil, logger.NewNop())
	ctx := context.Background()

	resp, err := client.Login(ctx, "studio@atelier.test", "atelier")
	require.NoError(t, err)
	require.False(t, resp.RequiresTwoFactor)
	require.NotEmpty(t, tokens.AccessToken())

	dash, err := client.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.ActiveProjects)

	accountID := s.state.accounts[0].ID
	sent, err := client.SendMessage(ctx, &model.SendMessageRequest{
		AccountID:     accountID,
		Content:       "Kickoff notes are in the shared folder.",
		CorrelationID: "corr-e2e",
	})
	require.NoError(t, err)
	assert.Equal(t, "corr-e2e", sent.CorrelationID)

	msgs, err := client.Messages(ctx, accountID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	require.NoError(t, client.Logout(ctx))
	assert.Empty(t, tokens.AccessToken())
}
