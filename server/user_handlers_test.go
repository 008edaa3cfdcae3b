package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/repositories"
)

func postJSON(t *testing.T, url string, body any) (*http.Response, apiResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCreateUser(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	resp, body := postJSON(t, relay.ts.URL+"/create_user", createUserRequest{
		Username: "Alice",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("success", body.Status)
	req.NotEmpty(body.Token)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	resp, body := postJSON(t, relay.ts.URL+"/create_user", createUserRequest{
		Username: "Imposter",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	req.Equal(http.StatusConflict, resp.StatusCode)
	req.Equal("error", body.Status)
}

func TestCreateUser_WeakPassword(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	resp, body := postJSON(t, relay.ts.URL+"/create_user", createUserRequest{
		Username: "Alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.Equal("error", body.Status)
}

func TestCreateUser_InvalidBody(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	resp, err := http.Post(relay.ts.URL+"/create_user", "application/json",
		bytes.NewReader([]byte("{not json")))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	resp, body := postJSON(t, relay.ts.URL+"/login", loginRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("success", body.Status)
	req.NotEmpty(body.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	resp, body := postJSON(t, relay.ts.URL+"/login", loginRequest{
		Email:    "alice@example.com",
		Password: "WrongPassword1!",
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	req.Equal("error", body.Status)
	req.Empty(body.Token)
}

func TestChangePassword(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	newPassword := "EvenStronger456$"
	resp, body := postJSON(t, relay.ts.URL+"/change_password", changePasswordRequest{
		Email:       "alice@example.com",
		OldPassword: testPassword,
		NewPassword: newPassword,
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("success", body.Status)

	// Old password is dead, new one works.
	resp, _ = postJSON(t, relay.ts.URL+"/login", loginRequest{
		Email: "alice@example.com", Password: testPassword,
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, relay.ts.URL+"/login", loginRequest{
		Email: "alice@example.com", Password: newPassword,
	})
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	resp, _ := postJSON(t, relay.ts.URL+"/change_password", changePasswordRequest{
		Email:       "alice@example.com",
		OldPassword: "WrongPassword1!",
		NewPassword: "EvenStronger456$",
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)
	relay.register(t, "Alice", "alice@example.com")

	resp, body := postJSON(t, relay.ts.URL+"/delete_user", deleteUserRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("success", body.Status)

	resp, _ = postJSON(t, relay.ts.URL+"/login", loginRequest{
		Email: "alice@example.com", Password: testPassword,
	})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestGetMessages(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	for _, content := range []string{"first", "second", "third"} {
		_, err := relay.messages.StoreMessage(repositories.DiskMessage{
			UserID:    "u1",
			UserEmail: "alice@example.com",
			Username:  "Alice",
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
		req.NoError(err)
	}

	resp, err := http.Get(relay.ts.URL + "/messages?limit=2")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var body messagesResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal("success", body.Status)
	req.Len(body.Messages, 2)
	// Newest two rows, oldest first.
	req.Equal("second", body.Messages[0].Content)
	req.Equal("third", body.Messages[1].Content)
}

func TestGetMessages_BadLimit(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	resp, err := http.Get(relay.ts.URL + "/messages?limit=abc")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestRootAndStatus(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t, testTimeout)

	resp, err := http.Get(relay.ts.URL + "/")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(relay.ts.URL + "/status")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}
